package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mindwell/internal/domain"
	"mindwell/internal/repository"
	"mindwell/internal/storage"
	"mindwell/pkg/search"
)

var allowedPhotoExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

var allowedDocumentExtensions = map[string]struct{}{
	".pdf":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

type ProfessionalServiceImpl struct {
	repo        repository.ProfessionalRepository
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
	search      search.Client
	logger      *zap.Logger
}

func NewProfessionalService(
	repo repository.ProfessionalRepository,
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
	searchClient search.Client,
	logger *zap.Logger,
) *ProfessionalServiceImpl {
	return &ProfessionalServiceImpl{
		repo:        repo,
		userRepo:    userRepo,
		fileStorage: fileStorage,
		search:      searchClient,
		logger:      logger,
	}
}

func (s *ProfessionalServiceImpl) Create(ctx context.Context, userID int64, dto domain.CreateProfessionalDTO) (int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("пользователь не найден при создании профиля специалиста", zap.Int64("userID", userID), zap.Error(err))
		return 0, errors.New("пользователь не найден")
	}

	_, err = s.repo.GetByUserID(ctx, userID)
	if err == nil {
		s.logger.Error("пользователь уже зарегистрирован как специалист", zap.Int64("userID", userID))
		return 0, errors.New("пользователь уже зарегистрирован как специалист")
	}

	id, err := s.repo.Create(ctx, userID, dto)
	if err != nil {
		s.logger.Error("ошибка создания профиля специалиста", zap.Error(err))
		return 0, errors.New("ошибка при создании профиля специалиста")
	}

	s.indexProfessional(ctx, id, userID, user.FirstName+" "+user.LastName, dto.Title, dto.Bio, dto.IssueTypes, dto.Languages)

	return id, nil
}

func (s *ProfessionalServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Professional, error) {
	professional, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("специалист не найден", zap.Int64("id", id), zap.Error(err))
		return nil, errors.New("специалист не найден")
	}

	return professional, nil
}

func (s *ProfessionalServiceImpl) GetByUserID(ctx context.Context, userID int64) (*domain.Professional, error) {
	professional, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("специалист не найден", zap.Int64("userID", userID), zap.Error(err))
		return nil, errors.New("специалист не найден")
	}

	return professional, nil
}

func (s *ProfessionalServiceImpl) Update(ctx context.Context, id int64, dto domain.UpdateProfessionalDTO) error {
	professional, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("специалист для обновления не найден", zap.Int64("id", id), zap.Error(err))
		return errors.New("специалист не найден")
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("ошибка обновления профиля специалиста", zap.Int64("id", id), zap.Error(err))
		return errors.New("ошибка при обновлении профиля специалиста")
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		updated = professional
	}

	s.indexProfessional(ctx, id, updated.UserID,
		updated.User.FirstName+" "+updated.User.LastName,
		updated.Title, updated.Bio, updated.IssueTypes, updated.Languages)

	return nil
}

func (s *ProfessionalServiceImpl) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		s.logger.Error("специалист для удаления не найден", zap.Int64("id", id), zap.Error(err))
		return errors.New("специалист не найден")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("ошибка удаления специалиста", zap.Int64("id", id), zap.Error(err))
		return errors.New("ошибка при удалении специалиста")
	}

	if s.search != nil {
		if err := s.search.DeleteDocument(ctx, strconv.FormatInt(id, 10)); err != nil {
			s.logger.Warn("не удалось удалить специалиста из индекса", zap.Int64("id", id), zap.Error(err))
		}
	}

	return nil
}

func (s *ProfessionalServiceImpl) List(ctx context.Context, filter domain.ProfessionalFilter) ([]domain.Professional, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	if filter.Offset < 0 {
		filter.Offset = 0
	}

	professionals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения списка специалистов", zap.Error(err))
		return nil, 0, errors.New("ошибка при получении списка специалистов")
	}

	return professionals, total, nil
}

// Search выполняет полнотекстовый поиск по каталогу специалистов. Найденные
// идентификаторы дочитываются из БД, Elasticsearch хранит только индекс.
func (s *ProfessionalServiceImpl) Search(ctx context.Context, query string, limit int) ([]domain.Professional, error) {
	if s.search == nil {
		return nil, errors.New("поиск недоступен")
	}

	if limit <= 0 {
		limit = 20
	}

	esQuery := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^2", "title", "bio", "issue_types", "languages"},
			},
		},
	}

	hits, err := s.search.Search(ctx, esQuery)
	if err != nil {
		s.logger.Error("ошибка поиска специалистов", zap.String("query", query), zap.Error(err))
		return nil, errors.New("ошибка при поиске специалистов")
	}

	professionals := make([]domain.Professional, 0, len(hits))
	for _, hit := range hits {
		rawID, ok := hit["professional_id"]
		if !ok {
			continue
		}

		id, err := toInt64(rawID)
		if err != nil {
			continue
		}

		professional, err := s.repo.GetByID(ctx, id)
		if err != nil {
			continue
		}

		professionals = append(professionals, *professional)
	}

	return professionals, nil
}

func (s *ProfessionalServiceImpl) UploadProfilePhoto(ctx context.Context, professionalID int64, photo []byte, filename string) (string, error) {
	if _, err := s.repo.GetByID(ctx, professionalID); err != nil {
		s.logger.Error("специалист не найден", zap.Int64("id", professionalID), zap.Error(err))
		return "", errors.New("специалист не найден")
	}

	if s.fileStorage == nil {
		return "", errors.New("хранилище файлов не настроено")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedPhotoExtensions[ext]; !ok {
		return "", errors.New("недопустимый формат изображения")
	}

	url, err := s.fileStorage.UploadFile(ctx, photo, fmt.Sprintf("professionals/%d/photo%s", professionalID, ext))
	if err != nil {
		s.logger.Error("ошибка загрузки фото", zap.Int64("id", professionalID), zap.Error(err))
		return "", errors.New("ошибка при загрузке фото")
	}

	if err := s.repo.UpdateProfilePhoto(ctx, professionalID, url); err != nil {
		s.logger.Error("ошибка сохранения ссылки на фото", zap.Int64("id", professionalID), zap.Error(err))
		return "", errors.New("ошибка при загрузке фото")
	}

	return url, nil
}

func (s *ProfessionalServiceImpl) UploadLicenseDocument(ctx context.Context, professionalID int64, document []byte, filename string) (string, error) {
	if _, err := s.repo.GetByID(ctx, professionalID); err != nil {
		s.logger.Error("специалист не найден", zap.Int64("id", professionalID), zap.Error(err))
		return "", errors.New("специалист не найден")
	}

	if s.fileStorage == nil {
		return "", errors.New("хранилище файлов не настроено")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedDocumentExtensions[ext]; !ok {
		return "", errors.New("недопустимый формат документа")
	}

	url, err := s.fileStorage.UploadFile(ctx, document, fmt.Sprintf("professionals/%d/license%s", professionalID, ext))
	if err != nil {
		s.logger.Error("ошибка загрузки документа", zap.Int64("id", professionalID), zap.Error(err))
		return "", errors.New("ошибка при загрузке документа")
	}

	if err := s.repo.UpdateLicenseDocument(ctx, professionalID, url); err != nil {
		s.logger.Error("ошибка сохранения ссылки на документ", zap.Int64("id", professionalID), zap.Error(err))
		return "", errors.New("ошибка при загрузке документа")
	}

	return url, nil
}

func (s *ProfessionalServiceImpl) indexProfessional(ctx context.Context, id, userID int64, name, title, bio string, issueTypes, languages []string) {
	if s.search == nil {
		return
	}

	document := map[string]interface{}{
		"professional_id": id,
		"user_id":         userID,
		"name":            name,
		"title":           title,
		"bio":             bio,
		"issue_types":     issueTypes,
		"languages":       languages,
	}

	if err := s.search.IndexDocument(ctx, strconv.FormatInt(id, 10), document); err != nil {
		s.logger.Warn("не удалось проиндексировать специалиста", zap.Int64("id", id), zap.Error(err))
	}
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("неожиданный тип идентификатора: %T", value)
	}
}
