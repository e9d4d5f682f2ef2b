package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindwell/internal/domain"
	"mindwell/internal/service"
)

// @Summary Создать заявку на сессию
// @Description Создает заявку на сессию. С указанным специалистом заявка попадает в его очередь, без специалиста — в общий пул
// @Tags Записи
// @Accept json
// @Produce json
// @Param input body domain.CreateAppointmentDTO true "Данные заявки"
// @Success 201 {object} map[string]interface{} "ID созданной заявки"
// @Failure 400 {object} errorResponseBody "Ошибка валидации или выбранное время недоступно"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 500 {object} errorResponseBody "Внутренняя ошибка сервера"
// @Security ApiKeyAuth
// @Router /appointments [post]
func (h *Handler) createAppointment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.logger.Warn("ошибка получения ID пользователя", zap.Error(err))
		unauthorizedResponse(c)
		return
	}

	var req domain.CreateAppointmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	id, err := h.services.Appointment.Create(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrSlotUnavailable) {
			badRequestResponse(c, err.Error())
			return
		}
		h.logger.Error("ошибка создания заявки", zap.Error(err))
		badRequestResponse(c, "ошибка создания заявки")
		return
	}

	createdResponse(c, gin.H{"id": id})
}

// @Summary Получить запись по ID
// @Description Возвращает информацию о записи на сессию
// @Tags Записи
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} domain.Appointment "Данные записи"
// @Failure 400 {object} errorResponseBody "Неверный формат ID"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 404 {object} errorResponseBody "Запись не найдена"
// @Security ApiKeyAuth
// @Router /appointments/{id} [get]
func (h *Handler) getAppointmentByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.logger.Warn("неверный формат ID", zap.Error(err))
		badRequestResponse(c, "неверный формат ID")
		return
	}

	appointment, err := h.services.Appointment.GetByID(c.Request.Context(), id)
	if err != nil {
		notFoundResponse(c, "запись не найдена")
		return
	}

	successResponse(c, http.StatusOK, appointment)
}

// @Summary Список записей
// @Description Возвращает записи текущего пользователя с фильтрами по статусу и датам
// @Tags Записи
// @Accept json
// @Produce json
// @Param status query string false "Статус записи"
// @Param date_from query string false "Начало периода (YYYY-MM-DD)"
// @Param date_to query string false "Конец периода (YYYY-MM-DD)"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} paginatedResponse "Список записей"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Security ApiKeyAuth
// @Router /appointments [get]
func (h *Handler) getAppointments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	role, err := getUserRole(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	filter := appointmentFilterFromQuery(c)

	switch role {
	case domain.UserRoleProfessional:
		professional, err := h.services.Professional.GetByUserID(c.Request.Context(), userID)
		if err != nil {
			notFoundResponse(c, "профиль специалиста не найден")
			return
		}
		filter.ProfessionalID = &professional.ID
	case domain.UserRoleClient:
		filter.ClientID = &userID
	}

	appointments, total, err := h.services.Appointment.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("ошибка при получении записей", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	page := filter.Offset/filter.Limit + 1

	paginatedSuccessResponse(c, appointments, total, page, filter.Limit)
}

// @Summary Обновить запись
// @Description Обновляет поля незавершённой записи: время, ссылку на встречу, адрес, заметки. Статус через этот запрос не меняется
// @Tags Записи
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param input body domain.UpdateAppointmentDTO true "Изменяемые поля"
// @Success 200 {object} responseEnvelope "Запись обновлена"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 409 {object} errorResponseBody "Запись в завершённом статусе"
// @Security ApiKeyAuth
// @Router /appointments/{id} [put]
func (h *Handler) updateAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	var req domain.UpdateAppointmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	err = h.services.Appointment.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			errorResponse(c, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("ошибка обновления записи", zap.Error(err))
		badRequestResponse(c, "ошибка обновления записи")
		return
	}

	messageResponse(c, http.StatusOK, "запись обновлена")
}

// @Summary Отменить запись
// @Description Отменяет запись из любого незавершённого статуса
// @Tags Записи
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} responseEnvelope "Запись отменена"
// @Failure 409 {object} errorResponseBody "Запись уже завершена"
// @Security ApiKeyAuth
// @Router /appointments/{id} [delete]
func (h *Handler) cancelAppointment(c *gin.Context) {
	role, err := getUserRole(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	by := domain.CancelledByClient
	if role == domain.UserRoleProfessional {
		by = domain.CancelledByProfessional
	}

	err = h.services.Appointment.Cancel(c.Request.Context(), id, by)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			errorResponse(c, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("ошибка отмены записи", zap.Error(err))
		badRequestResponse(c, "ошибка отмены записи")
		return
	}

	messageResponse(c, http.StatusOK, "запись отменена")
}

// @Summary Предложенные заявки
// @Description Возвращает заявки, адресованные текущему специалисту и ожидающие решения
// @Tags Записи
// @Produce json
// @Success 200 {object} responseEnvelope "Список заявок"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Security ApiKeyAuth
// @Router /appointments/proposed [get]
func (h *Handler) getProposedAppointments(c *gin.Context) {
	professional, ok := h.currentProfessional(c)
	if !ok {
		return
	}

	appointments, err := h.services.Appointment.ListProposed(c.Request.Context(), professional.ID)
	if err != nil {
		h.logger.Error("ошибка получения предложенных заявок", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	successResponse(c, http.StatusOK, appointments)
}

// @Summary Общий пул заявок
// @Description Возвращает заявки без адресата, доступные любому специалисту
// @Tags Записи
// @Produce json
// @Success 200 {object} responseEnvelope "Список заявок"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Security ApiKeyAuth
// @Router /appointments/general [get]
func (h *Handler) getGeneralAppointments(c *gin.Context) {
	appointments, err := h.services.Appointment.ListGeneral(c.Request.Context())
	if err != nil {
		h.logger.Error("ошибка получения общего пула заявок", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	successResponse(c, http.StatusOK, appointments)
}

// @Summary Принять заявку
// @Description Специалист принимает заявку и назначает дату и время сессии
// @Tags Записи
// @Accept json
// @Produce json
// @Param id path int true "ID заявки"
// @Param input body domain.AcceptAppointmentDTO true "Дата и время сессии"
// @Success 200 {object} responseEnvelope "Заявка принята"
// @Failure 400 {object} errorResponseBody "Выбранное время недоступно"
// @Failure 409 {object} errorResponseBody "Заявку уже принял другой специалист"
// @Security ApiKeyAuth
// @Router /appointments/{id}/accept [post]
func (h *Handler) acceptAppointment(c *gin.Context) {
	professional, ok := h.currentProfessional(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	var req domain.AcceptAppointmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	err = h.services.Appointment.Accept(c.Request.Context(), id, professional.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStatusConflict):
			errorResponse(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrSlotUnavailable):
			badRequestResponse(c, err.Error())
		default:
			h.logger.Error("ошибка принятия заявки", zap.Error(err))
			badRequestResponse(c, err.Error())
		}
		return
	}

	messageResponse(c, http.StatusOK, "заявка принята")
}

// @Summary Отклонить заявку
// @Description Специалист возвращает адресованную ему заявку в общий пул
// @Tags Записи
// @Produce json
// @Param id path int true "ID заявки"
// @Success 200 {object} responseEnvelope "Заявка возвращена в общий пул"
// @Failure 409 {object} errorResponseBody "Заявка уже обработана"
// @Security ApiKeyAuth
// @Router /appointments/{id}/refuse [post]
func (h *Handler) refuseAppointment(c *gin.Context) {
	professional, ok := h.currentProfessional(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	err = h.services.Appointment.Refuse(c.Request.Context(), id, professional.ID)
	if err != nil {
		if errors.Is(err, service.ErrStatusConflict) {
			errorResponse(c, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("ошибка отклонения заявки", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	messageResponse(c, http.StatusOK, "заявка возвращена в общий пул")
}

// @Summary Начать сессию
// @Description Переводит сессию в статус ongoing. Для видеосессии требуется ссылка на встречу
// @Tags Записи
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} responseEnvelope "Сессия начата"
// @Failure 400 {object} errorResponseBody "Нет ссылки на видеовстречу"
// @Failure 409 {object} errorResponseBody "Сессия не в статусе scheduled"
// @Security ApiKeyAuth
// @Router /appointments/{id}/start [post]
func (h *Handler) startAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	err = h.services.Appointment.Start(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMeetingLinkRequired):
			badRequestResponse(c, err.Error())
		case errors.Is(err, service.ErrInvalidTransition):
			errorResponse(c, http.StatusConflict, err.Error())
		default:
			h.logger.Error("ошибка начала сессии", zap.Error(err))
			badRequestResponse(c, err.Error())
		}
		return
	}

	messageResponse(c, http.StatusOK, "сессия начата")
}

// @Summary Завершить сессию
// @Description Переводит сессию из ongoing в completed
// @Tags Записи
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} responseEnvelope "Сессия завершена"
// @Failure 409 {object} errorResponseBody "Сессия не идёт"
// @Security ApiKeyAuth
// @Router /appointments/{id}/complete [post]
func (h *Handler) completeAppointment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	err = h.services.Appointment.Complete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			errorResponse(c, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("ошибка завершения сессии", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	messageResponse(c, http.StatusOK, "сессия завершена")
}

// @Summary Отметить неявку
// @Description Помечает запланированную сессию как no_show
// @Tags Записи
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} responseEnvelope "Неявка зафиксирована"
// @Failure 409 {object} errorResponseBody "Сессия не в статусе scheduled"
// @Security ApiKeyAuth
// @Router /appointments/{id}/no-show [post]
func (h *Handler) markAppointmentNoShow(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	err = h.services.Appointment.NoShow(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			errorResponse(c, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("ошибка отметки неявки", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	messageResponse(c, http.StatusOK, "неявка зафиксирована")
}

func (h *Handler) currentProfessional(c *gin.Context) (*domain.Professional, bool) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return nil, false
	}

	professional, err := h.services.Professional.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		notFoundResponse(c, "профиль специалиста не найден")
		return nil, false
	}

	return professional, true
}

func appointmentFilterFromQuery(c *gin.Context) domain.AppointmentFilter {
	var filter domain.AppointmentFilter

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.AppointmentStatus(statusStr)
		filter.Status = &status
	}

	if dateFrom := c.Query("date_from"); dateFrom != "" {
		if parsed, err := time.Parse("2006-01-02", dateFrom); err == nil {
			filter.StartDate = &parsed
		}
	}

	if dateTo := c.Query("date_to"); dateTo != "" {
		if parsed, err := time.Parse("2006-01-02", dateTo); err == nil {
			parsed = parsed.Add(24*time.Hour - time.Second)
			filter.EndDate = &parsed
		}
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

	return filter
}
