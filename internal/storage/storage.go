package storage

import (
	"context"
	"time"
)

// FileStorage хранит загружаемые файлы: фотографии профиля
// и лицензионные документы специалистов.
type FileStorage interface {
	// UploadFile сохраняет файл и возвращает его публичный URL.
	// Имя объекта генерируется заново, путь из filename определяет каталог.
	UploadFile(ctx context.Context, data []byte, filename string) (string, error)

	DeleteFile(ctx context.Context, fileURL string) error

	GetFile(ctx context.Context, fileURL string) ([]byte, error)

	// GetPresignedURL выдает временную ссылку на закрытый объект,
	// используется для лицензионных документов.
	GetPresignedURL(ctx context.Context, fileURL string, expiry time.Duration) (string, error)
}
