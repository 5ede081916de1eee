package guide

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"guidepost/internal/config"
	"guidepost/internal/domain"
	models "guidepost/internal/domain/models/guides"
	guidesSvc "guidepost/internal/domain/services/guides"
)

// ImportArchive imports guides from a zip archive. Markdown files may carry a
// YAML frontmatter header (title, slug, source_url); their body is stored as
// a single text block. HTML files run through the full sanitize + parse
// pipeline with no trust base, so interactive markup inside an archive is
// rejected like any other untrusted source. Failures are collected per file
// and never abort the batch.
func (s *guideService) ImportArchive(ctx context.Context, archive []byte) (*guidesSvc.ImportResult, error) {
	if len(archive) > config.MaxImportArchiveBytes {
		return nil, fmt.Errorf("%w: archive exceeds %d bytes", domain.ErrValidation, config.MaxImportArchiveBytes)
	}

	zipFile, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid zip archive: %v", domain.ErrValidation, err)
	}

	result := &guidesSvc.ImportResult{
		Summary: guidesSvc.ImportSummary{},
		Errors:  []guidesSvc.ImportError{},
		Guides:  []guidesSvc.ImportGuide{},
	}

	for _, file := range zipFile.File {
		if file.FileInfo().IsDir() {
			continue
		}
		result.Summary.TotalFiles++

		switch strings.ToLower(filepath.Ext(file.Name)) {
		case ".md":
			s.importMarkdownFile(ctx, file, result)
		case ".html", ".htm":
			s.importHTMLFile(ctx, file, result)
		default:
			s.logger.Debug("skipping unsupported file", "file", file.Name)
			result.Summary.Skipped++
		}
	}

	s.logger.Info("guide import complete",
		"created", result.Summary.Created,
		"failed", result.Summary.Failed,
		"skipped", result.Summary.Skipped,
		"total_files", result.Summary.TotalFiles,
	)

	return result, nil
}

func (s *guideService) importMarkdownFile(ctx context.Context, file *zip.File, result *guidesSvc.ImportResult) {
	content, err := readArchiveFile(file)
	if err != nil {
		s.addImportError(result, file.Name, err.Error())
		return
	}

	fm, body, err := parseFrontmatter(content)
	if err != nil {
		s.addImportError(result, file.Name, err.Error())
		return
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(file.Name), filepath.Ext(file.Name))
	}

	var sourceURL *string
	if fm.SourceURL != "" {
		sourceURL = &fm.SourceURL
	}

	blocks := []models.Block{{
		ID:   uuid.NewString(),
		Type: models.BlockTypeText,
		Text: strings.TrimSpace(body),
	}}

	s.createImported(ctx, file.Name, title, fm.Slug, sourceURL, blocks, result)
}

func (s *guideService) importHTMLFile(ctx context.Context, file *zip.File, result *guidesSvc.ImportResult) {
	content, err := readArchiveFile(file)
	if err != nil {
		s.addImportError(result, file.Name, err.Error())
		return
	}

	blocks, err := s.buildBlocks(string(content), nil, false)
	if err != nil {
		s.addImportError(result, file.Name, err.Error())
		return
	}

	title := strings.TrimSuffix(filepath.Base(file.Name), filepath.Ext(file.Name))
	s.createImported(ctx, file.Name, title, "", nil, blocks, result)
}

// createImported validates the derived fields, persists the guide, and
// records the outcome on the result.
func (s *guideService) createImported(
	ctx context.Context,
	fileName string,
	title string,
	slug string,
	sourceURL *string,
	blocks []models.Block,
	result *guidesSvc.ImportResult,
) {
	if len(title) > config.MaxGuideTitleLength {
		s.addImportError(result, fileName, fmt.Sprintf("title exceeds %d characters", config.MaxGuideTitleLength))
		return
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if err := ValidateSlug(slug); err != nil {
		s.addImportError(result, fileName, err.Error())
		return
	}

	now := time.Now()
	guide := &models.Guide{
		ID:        uuid.NewString(),
		Title:     title,
		Slug:      slug,
		SourceURL: normalizeRef(sourceURL),
		Blocks:    blocks,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.guideRepo.Create(ctx, guide); err != nil {
		s.addImportError(result, fileName, err.Error())
		return
	}

	result.Summary.Created++
	result.Guides = append(result.Guides, guidesSvc.ImportGuide{
		ID:    guide.ID,
		File:  fileName,
		Title: guide.Title,
		Slug:  guide.Slug,
	})

	s.logger.Debug("guide imported",
		"id", guide.ID,
		"file", fileName,
		"slug", guide.Slug,
	)
}

func (s *guideService) addImportError(result *guidesSvc.ImportResult, file, message string) {
	result.Summary.Failed++
	result.Errors = append(result.Errors, guidesSvc.ImportError{
		File:  file,
		Error: message,
	})

	s.logger.Warn("import file failed",
		"file", file,
		"error", message,
	)
}

// readArchiveFile reads one zip entry, enforcing the per-file size limit.
func readArchiveFile(file *zip.File) ([]byte, error) {
	if file.UncompressedSize64 > uint64(config.MaxImportFileBytes) {
		return nil, fmt.Errorf("file exceeds %d bytes", config.MaxImportFileBytes)
	}

	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %v", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(io.LimitReader(reader, int64(config.MaxImportFileBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %v", err)
	}
	if len(content) > config.MaxImportFileBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", config.MaxImportFileBytes)
	}
	return content, nil
}
