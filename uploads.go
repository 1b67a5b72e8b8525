package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/HeshMedia/insurezeal-sub005/config"
	"github.com/HeshMedia/insurezeal-sub005/models"
	"github.com/HeshMedia/insurezeal-sub005/recon"
	"github.com/HeshMedia/insurezeal-sub005/utils"
	"github.com/HeshMedia/insurezeal-sub005/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Insurer bulk files are small sheets; 20 MB is generous.
const maxReconUploadBytes = 20 << 20

// reconcileUploadHandler ingests one insurer bulk file (xlsx or csv),
// runs the reconciliation batch and returns the report. The raw file is
// archived to GCS best-effort so a run can be traced to its source.
func reconcileUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		insurer := strings.TrimSpace(c.PostForm("insurer_name"))
		if insurer == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insurer_name is required"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > maxReconUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds 20MB limit"})
			return
		}
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if ext != ".xlsx" && ext != ".csv" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only .xlsx and .csv files are supported"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
			return
		}
		defer file.Close()

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(file); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
			return
		}

		rawRows, err := recon.ReadRows(fileHeader.Filename, bytes.NewReader(buf.Bytes()))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		archiveUploadedFile(c.Request.Context(), logger, insurer, fileHeader.Filename, buf.Bytes())

		run, report, err := workflow.ProcessReconciliationWorkflow(
			c.Request.Context(), config.GetDB(), logger, insurer, fileHeader.Filename, rawRows)
		if err != nil {
			switch {
			case errors.Is(err, recon.ErrMappingNotFound):
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("no header mappings configured for insurer %q", insurer)})
			case errors.Is(err, workflow.ErrReconciliationInProgress):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"run_id": run.ID,
			"stats":  report.Stats,
			"report": report,
		})
	}
}

// archiveUploadedFile stores the raw upload under a dated object key.
// Best effort: archival failure never fails the run.
func archiveUploadedFile(ctx context.Context, logger *logrus.Logger, insurer, fileName string, data []byte) {
	objectKey := fmt.Sprintf("recon-uploads/%s/%s_%s%s",
		strings.ReplaceAll(insurer, "/", "_"),
		time.Now().UTC().Format("20060102T150405"),
		utils.GenerateUniqueFilename(),
		strings.ToLower(filepath.Ext(fileName)))
	if err := utils.UploadFileToGCS(ctx, objectKey, bytes.NewReader(data)); err != nil {
		logger.WithFields(logrus.Fields{
			"module":  "uploads.go",
			"insurer": insurer,
			"file":    fileName,
		}).Warnf("failed to archive uploaded file: %v", err)
	}
}

func exportReconciliationRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		runId := c.Param("id")
		report, err := models.LoadReconciliationReport(c.Request.Context(), config.GetDB(), runId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "reconciliation run not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var buf bytes.Buffer
		if err := recon.ExportExcel(report, &buf); err != nil {
			config.LogError(config.GetLogger(), "uploads.go", "exportReconciliationRunHandler", "ExportExcel", runId, err)
			c.Status(http.StatusInternalServerError)
			return
		}

		archiveExportedReport(c.Request.Context(), config.GetLogger(), runId, buf.Bytes())

		fileName := fmt.Sprintf("reconciliation_%s_%s.xlsx",
			strings.ReplaceAll(report.InsurerName, " ", "_"), runId)
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// archiveExportedReport keeps one copy of the workbook per run in the bucket.
// Runs are immutable, so an object that already exists is left alone.
// Best effort: archival failure never fails the download.
func archiveExportedReport(ctx context.Context, logger *logrus.Logger, runId string, data []byte) {
	objectKey := fmt.Sprintf("recon-reports/%s.xlsx", runId)
	if ok, err := utils.ObjectExistsInGCS(ctx, objectKey); err == nil && ok {
		return
	}
	if err := utils.UploadBytesToGCS(ctx, objectKey, data, xlsxContentType); err != nil {
		logger.WithFields(logrus.Fields{
			"module": "uploads.go",
			"run_id": runId,
		}).Warnf("failed to archive exported report: %v", err)
	}
}
