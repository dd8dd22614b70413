package augment

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var structuredExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

var knowledgeExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".pdf":  true,
	".docx": true,
}

// UploadedFile describes one stored upload.
type UploadedFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	FilePath string `json:"file_path"`
}

// Uploader stores augmentation input files under the upload directory:
// structured datasets at the top level, knowledge files in a batch
// subdirectory.
type Uploader struct {
	dir string
}

// NewUploader creates the upload service rooted at dir.
func NewUploader(dir string) (*Uploader, error) {
	if err := os.MkdirAll(filepath.Join(dir, "knowledge"), 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Uploader{dir: dir}, nil
}

// SaveStructured stores one structured-data upload. Only CSV and Excel
// files are accepted.
func (u *Uploader) SaveStructured(file io.Reader, filename string) (string, *UploadedFile, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !structuredExtensions[ext] {
		return "", nil, fmt.Errorf("unsupported structured file type: %s", ext)
	}

	fileID := uuid.NewString()
	path := filepath.Join(u.dir, fmt.Sprintf("structured_%s%s", fileID, ext))

	size, err := writeFile(path, file)
	if err != nil {
		return "", nil, err
	}

	return fileID, &UploadedFile{Filename: filename, Size: size, FilePath: path}, nil
}

// SaveKnowledge stores a batch of domain-knowledge uploads under one
// batch id. Unsupported file types are skipped, not rejected.
func (u *Uploader) SaveKnowledge(files []*multipart.FileHeader) (string, []UploadedFile, error) {
	batchID := uuid.NewString()

	var saved []UploadedFile
	for _, header := range files {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !knowledgeExtensions[ext] {
			continue
		}

		file, err := header.Open()
		if err != nil {
			return "", nil, fmt.Errorf("open knowledge upload %s: %w", header.Filename, err)
		}

		name := fmt.Sprintf("knowledge_%s_%s", batchID, filepath.Base(header.Filename))
		path := filepath.Join(u.dir, "knowledge", name)

		size, err := writeFile(path, file)
		closeErr := file.Close()
		if err != nil {
			return "", nil, err
		}
		if closeErr != nil {
			return "", nil, fmt.Errorf("close knowledge upload %s: %w", header.Filename, closeErr)
		}

		saved = append(saved, UploadedFile{Filename: header.Filename, Size: size, FilePath: path})
	}

	return batchID, saved, nil
}

// StructuredPath resolves a structured file id back to its stored path.
func (u *Uploader) StructuredPath(fileID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(u.dir, "structured_"+fileID+".*"))
	if err != nil {
		return "", fmt.Errorf("lookup structured file: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("structured file not found: %s", fileID)
	}
	return matches[0], nil
}

// KnowledgeBatchPaths resolves a knowledge batch id to its stored files.
func (u *Uploader) KnowledgeBatchPaths(batchID string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(u.dir, "knowledge", "knowledge_"+batchID+"_*"))
	if err != nil {
		return nil, fmt.Errorf("lookup knowledge batch: %w", err)
	}
	return matches, nil
}

func writeFile(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}

	size, err := io.Copy(dst, src)
	if err != nil {
		_ = dst.Close()
		return 0, fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return 0, fmt.Errorf("close upload file: %w", err)
	}
	return size, nil
}
