package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// Ошибки проверки загружаемых файлов.
var (
	ErrFileTooLarge      = errors.New("file exceeds the upload size limit")
	ErrEmptyFile         = errors.New("file is empty")
	ErrUnsupportedType   = errors.New("only image files are allowed")
	ErrExtensionMismatch = errors.New("file extension does not match its content")
)

// Разрешённые изображения: расширение -> MIME тип.
var allowedImages = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// MediaStorage хранит загруженные файлы на локальном диске под случайными именами.
type MediaStorage struct {
	rootPath       string
	publicURL      string
	maxUploadBytes int64
}

// NewMediaStorage создаёт файловое хранилище.
func NewMediaStorage(rootPath, publicURL string, maxUploadMB int64) (*MediaStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &MediaStorage{
		rootPath:       rootPath,
		publicURL:      strings.TrimRight(publicURL, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// MaxUploadBytes возвращает лимит размера одного файла.
func (s *MediaStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// URL возвращает публичную ссылку на сохранённый файл.
func (s *MediaStorage) URL(name string) string {
	return s.publicURL + "/" + name
}

// DetectImage проверяет расширение и магические байты. Возвращает нормализованное расширение.
func DetectImage(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedImages[ext]; !ok {
		return "", ErrUnsupportedType
	}
	if len(head) == 0 {
		return "", ErrEmptyFile
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", ErrUnsupportedType
	}
	if allowedImages[ext] != kind.MIME.Value {
		if _, ok := allowedImages["."+kind.Extension]; !ok {
			return "", ErrUnsupportedType
		}
		return "", ErrExtensionMismatch
	}

	return ext, nil
}

// Save проверяет содержимое и сохраняет файл. Возвращает имя файла в хранилище и размер.
func (s *MediaStorage) Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", 0, fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	head = head[:n]

	ext, err := DetectImage(originalName, head)
	if err != nil {
		return "", 0, err
	}

	name := uuid.NewString() + ext
	targetPath := filepath.Join(s.rootPath, name)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", 0, ErrFileTooLarge
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return name, written, nil
}

// IsRejected сообщает, что файл отклонён проверкой, а не сбоем хранилища.
func IsRejected(err error) bool {
	return errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrExtensionMismatch)
}
