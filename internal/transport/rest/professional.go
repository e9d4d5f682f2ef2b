package rest

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindwell/internal/domain"
)

const maxUploadSize = 10 << 20

// @Summary Список специалистов
// @Description Возвращает каталог специалистов с фильтрами по направлению, виду терапии и формату
// @Tags Специалисты
// @Produce json
// @Param issue_type query string false "Направление работы"
// @Param therapy_type query string false "Вид терапии (solo, couple, group)"
// @Param format query string false "Формат сессии (video, in_person, phone)"
// @Param verified query bool false "Только проверенные"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} paginatedResponse "Список специалистов"
// @Router /professionals [get]
func (h *Handler) getProfessionals(c *gin.Context) {
	var filter domain.ProfessionalFilter

	if issueType := c.Query("issue_type"); issueType != "" {
		filter.IssueType = &issueType
	}

	if therapyStr := c.Query("therapy_type"); therapyStr != "" {
		therapy := domain.TherapyType(therapyStr)
		filter.TherapyType = &therapy
	}

	if formatStr := c.Query("format"); formatStr != "" {
		format := domain.AppointmentType(formatStr)
		filter.Format = &format
	}

	if verifiedStr := c.Query("verified"); verifiedStr != "" {
		verified := verifiedStr == "true"
		filter.Verified = &verified
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	filter.Limit = limit
	filter.Offset = offset

	professionals, total, err := h.services.Professional.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("ошибка при получении списка специалистов", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	page := offset/limit + 1

	paginatedSuccessResponse(c, professionals, total, page, limit)
}

// @Summary Поиск специалистов
// @Description Полнотекстовый поиск по имени, специализации и направлениям работы
// @Tags Специалисты
// @Produce json
// @Param q query string true "Поисковый запрос"
// @Param limit query int false "Максимум результатов"
// @Success 200 {object} responseEnvelope "Найденные специалисты"
// @Failure 400 {object} errorResponseBody "Пустой запрос"
// @Router /professionals/search [get]
func (h *Handler) searchProfessionals(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		badRequestResponse(c, "пустой поисковый запрос")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	professionals, err := h.services.Professional.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.logger.Error("ошибка поиска специалистов", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	successResponse(c, http.StatusOK, professionals)
}

// @Summary Профиль специалиста
// @Tags Специалисты
// @Produce json
// @Param id path int true "ID специалиста"
// @Success 200 {object} domain.Professional "Данные специалиста"
// @Failure 404 {object} errorResponseBody "Специалист не найден"
// @Router /professionals/{id} [get]
func (h *Handler) getProfessionalByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	professional, err := h.services.Professional.GetByID(c.Request.Context(), id)
	if err != nil {
		notFoundResponse(c, "специалист не найден")
		return
	}

	successResponse(c, http.StatusOK, professional)
}

// @Summary Мой профиль специалиста
// @Tags Специалисты
// @Produce json
// @Success 200 {object} domain.Professional "Данные специалиста"
// @Failure 404 {object} errorResponseBody "Профиль не найден"
// @Security ApiKeyAuth
// @Router /professionals/me [get]
func (h *Handler) getMyProfessionalProfile(c *gin.Context) {
	professional, ok := h.currentProfessional(c)
	if !ok {
		return
	}

	successResponse(c, http.StatusOK, professional)
}

// @Summary Создать профиль специалиста
// @Tags Специалисты
// @Accept json
// @Produce json
// @Param input body domain.CreateProfessionalDTO true "Данные профиля"
// @Success 201 {object} map[string]interface{} "ID профиля"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Security ApiKeyAuth
// @Router /professionals [post]
func (h *Handler) createProfessional(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.CreateProfessionalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	id, err := h.services.Professional.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.logger.Error("ошибка создания профиля специалиста", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	createdResponse(c, gin.H{"id": id})
}

// @Summary Обновить профиль специалиста
// @Tags Специалисты
// @Accept json
// @Produce json
// @Param id path int true "ID специалиста"
// @Param input body domain.UpdateProfessionalDTO true "Изменяемые поля"
// @Success 200 {object} responseEnvelope "Профиль обновлён"
// @Failure 403 {object} errorResponseBody "Чужой профиль"
// @Security ApiKeyAuth
// @Router /professionals/{id} [put]
func (h *Handler) updateProfessional(c *gin.Context) {
	id, ok := h.ownedProfessionalID(c)
	if !ok {
		return
	}

	var req domain.UpdateProfessionalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	// Отметку о проверке ставит только администратор.
	if role, _ := getUserRole(c); role != domain.UserRoleAdmin {
		req.IsVerified = nil
	}

	if err := h.services.Professional.Update(c.Request.Context(), id, req); err != nil {
		h.logger.Error("ошибка обновления профиля специалиста", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	messageResponse(c, http.StatusOK, "профиль обновлён")
}

// @Summary Удалить профиль специалиста
// @Tags Специалисты
// @Produce json
// @Param id path int true "ID специалиста"
// @Success 204 "Профиль удалён"
// @Security ApiKeyAuth
// @Router /professionals/{id} [delete]
func (h *Handler) deleteProfessional(c *gin.Context) {
	id, ok := h.ownedProfessionalID(c)
	if !ok {
		return
	}

	if err := h.services.Professional.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("ошибка удаления профиля специалиста", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	noContentResponse(c)
}

// @Summary Загрузить фото профиля
// @Tags Специалисты
// @Accept mpfd
// @Produce json
// @Param id path int true "ID специалиста"
// @Param photo formData file true "Изображение (jpg, png, webp)"
// @Success 200 {object} responseEnvelope "Ссылка на фото"
// @Failure 400 {object} errorResponseBody "Недопустимый файл"
// @Security ApiKeyAuth
// @Router /professionals/{id}/photo [post]
func (h *Handler) uploadProfessionalPhoto(c *gin.Context) {
	id, ok := h.ownedProfessionalID(c)
	if !ok {
		return
	}

	data, filename, ok := readUpload(c, "photo")
	if !ok {
		return
	}

	url, err := h.services.Professional.UploadProfilePhoto(c.Request.Context(), id, data, filename)
	if err != nil {
		h.logger.Error("ошибка загрузки фото", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	successResponse(c, http.StatusOK, gin.H{"url": url})
}

// @Summary Загрузить документ о квалификации
// @Tags Специалисты
// @Accept mpfd
// @Produce json
// @Param id path int true "ID специалиста"
// @Param document formData file true "Документ (pdf, jpg, png)"
// @Success 200 {object} responseEnvelope "Ссылка на документ"
// @Failure 400 {object} errorResponseBody "Недопустимый файл"
// @Security ApiKeyAuth
// @Router /professionals/{id}/license [post]
func (h *Handler) uploadLicenseDocument(c *gin.Context) {
	id, ok := h.ownedProfessionalID(c)
	if !ok {
		return
	}

	data, filename, ok := readUpload(c, "document")
	if !ok {
		return
	}

	url, err := h.services.Professional.UploadLicenseDocument(c.Request.Context(), id, data, filename)
	if err != nil {
		h.logger.Error("ошибка загрузки документа", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	successResponse(c, http.StatusOK, gin.H{"url": url})
}

// @Summary Свободные слоты
// @Description Возвращает расчётную сетку слотов специалиста на дату
// @Tags Расписание
// @Produce json
// @Param id path int true "ID специалиста"
// @Param date query string true "Дата (YYYY-MM-DD)"
// @Success 200 {object} domain.DayAvailability "Сетка слотов"
// @Failure 400 {object} errorResponseBody "Неверная дата"
// @Router /professionals/{id}/available-slots [get]
func (h *Handler) getAvailableSlots(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	dateStr := c.Query("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		badRequestResponse(c, "неверный формат даты, ожидается YYYY-MM-DD")
		return
	}

	day, err := h.services.Availability.ComputeSlots(c.Request.Context(), id, date)
	if err != nil {
		h.logger.Error("ошибка расчёта слотов", zap.Int64("professionalId", id), zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	successResponse(c, http.StatusOK, day)
}

// @Summary Шаблон рабочих часов
// @Tags Расписание
// @Produce json
// @Param id path int true "ID специалиста"
// @Success 200 {object} domain.WorkingHoursTemplate "Шаблон"
// @Failure 404 {object} errorResponseBody "Шаблон не задан"
// @Router /professionals/{id}/availability [get]
func (h *Handler) getAvailability(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	template, err := h.services.Availability.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("ошибка получения шаблона", zap.Int64("professionalId", id), zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	if template == nil {
		notFoundResponse(c, "расписание не задано")
		return
	}

	successResponse(c, http.StatusOK, template)
}

// @Summary Обновить шаблон рабочих часов
// @Description Сохраняет недельный шаблон: 7 дней с рабочими часами, длительность сессии и перерыва
// @Tags Расписание
// @Accept json
// @Produce json
// @Param id path int true "ID специалиста"
// @Param input body domain.UpdateAvailabilityDTO true "Шаблон рабочих часов"
// @Success 200 {object} domain.WorkingHoursTemplate "Сохранённый шаблон"
// @Failure 400 {object} errorResponseBody "Нарушены инварианты шаблона"
// @Security ApiKeyAuth
// @Router /professionals/{id}/availability [put]
func (h *Handler) updateAvailability(c *gin.Context) {
	id, ok := h.ownedProfessionalID(c)
	if !ok {
		return
	}

	var req domain.UpdateAvailabilityDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	template, err := h.services.Availability.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidWorkHours),
			errors.Is(err, domain.ErrInvalidDuration),
			errors.Is(err, domain.ErrInvalidDayCount):
			badRequestResponse(c, err.Error())
		default:
			h.logger.Error("ошибка сохранения шаблона", zap.Int64("professionalId", id), zap.Error(err))
			internalServerErrorResponse(c)
		}
		return
	}

	successResponse(c, http.StatusOK, template)
}

// ownedProfessionalID проверяет, что путь указывает на профиль текущего
// пользователя. Администратору доступны любые профили.
func (h *Handler) ownedProfessionalID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return 0, false
	}

	role, err := getUserRole(c)
	if err != nil {
		unauthorizedResponse(c)
		return 0, false
	}

	if role == domain.UserRoleAdmin {
		return id, true
	}

	professional, ok := h.currentProfessional(c)
	if !ok {
		return 0, false
	}

	if professional.ID != id {
		forbiddenResponse(c)
		return 0, false
	}

	return id, true
}

func readUpload(c *gin.Context, field string) ([]byte, string, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		badRequestResponse(c, "файл не найден в запросе")
		return nil, "", false
	}

	if fileHeader.Size > maxUploadSize {
		badRequestResponse(c, "файл слишком большой")
		return nil, "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		internalServerErrorResponse(c)
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		internalServerErrorResponse(c)
		return nil, "", false
	}

	return data, fileHeader.Filename, true
}
