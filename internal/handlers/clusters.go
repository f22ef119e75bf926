package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

type ClusterHandler struct {
	clusters repos.ClusterRepo
}

func NewClusterHandler(clusters repos.ClusterRepo) *ClusterHandler {
	return &ClusterHandler{clusters: clusters}
}

func (ch *ClusterHandler) List(c *gin.Context) {
	clusters, err := ch.clusters.GetAll(c.Request.Context(), nil)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if clusters == nil {
		clusters = []*types.Cluster{}
	}
	RespondOK(c, gin.H{"clusters": clusters})
}

func (ch *ClusterHandler) Get(c *gin.Context) {
	clusterID, err := pathID(c, "id")
	if err != nil {
		RespondAppError(c, err)
		return
	}
	cluster, err := ch.clusters.GetByID(c.Request.Context(), nil, clusterID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if cluster == nil {
		RespondAppError(c, fmt.Errorf("%w: cluster %d", apperr.ErrNotFound, clusterID))
		return
	}
	RespondOK(c, cluster)
}
