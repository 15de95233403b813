// Package rest wires the registry query facade onto a gin router.
package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers all API routes on the router
func SetupRoutes(router *gin.Engine, handler Handler) {
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/collections", handler.GetCollections)
		v1.POST("/collections", handler.CreateCollection)
		v1.GET("/collections/:collection_id", handler.GetCollection)
		v1.GET("/collections/:collection_id/nfts", handler.GetCollectionNFTs)
		v1.GET("/nfts/:collection_id/:nft_id", handler.GetNFT)
		v1.GET("/owners/:address/nfts", handler.GetOwnerNFTs)
		v1.GET("/listings", handler.GetListings)
		v1.GET("/listings/:collection_id/:nft_id", handler.GetListing)
		v1.GET("/history/:collection_id/:nft_id", handler.GetTransferHistory)
		v1.GET("/stats", handler.GetStats)
	}
}
