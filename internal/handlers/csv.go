package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"advent/internal/storage"
)

// PrizeCSVField is the multipart field name of the prize upload.
const PrizeCSVField = "file"

// UploadPrizesCSV handles the CSV upload for prizes.
func (h *HTTPHandler) UploadPrizesCSV(c *gin.Context) {
	file, _, err := c.Request.FormFile(PrizeCSVField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving file: " + err.Error()})
		return
	}
	defer file.Close()

	specs, skipped, err := storage.ParseCatalogCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading CSV: " + err.Error()})
		return
	}

	added, err := h.service.ImportPrizes(c.Request.Context(), specs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"prizes": added, "imported": len(added), "skipped": skipped})
}

// ExportHistoryCSV handles the request to download the history as a CSV file.
func (h *HTTPHandler) ExportHistoryCSV(c *gin.Context) {
	report, err := h.service.History(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment;filename=advent_history.csv")
	c.Status(http.StatusOK)

	if err := storage.WriteHistoryCSV(c.Writer, report.History, h.service.Gate().Location()); err != nil {
		// Headers are already sent.
		logger.Infof("Error writing CSV: %v", err)
	}
}
