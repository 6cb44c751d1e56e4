package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) SearchTitles(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing search query"})
		return
	}

	results, err := h.titles.SearchTitles(c.Request.Context(), query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("title search failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h HandlerSet) TitleRating(c *gin.Context) {
	id := c.Param("id")

	rating, err := h.titles.FetchTitleRating(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("title_id", id).Msg("rating fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch rating"})
		return
	}

	c.JSON(http.StatusOK, rating)
}

func (h HandlerSet) TitleParentsGuide(c *gin.Context) {
	id := c.Param("id")

	guide, err := h.titles.FetchParentsGuide(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("title_id", id).Msg("parents guide fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch parents guide"})
		return
	}

	c.JSON(http.StatusOK, guide)
}
