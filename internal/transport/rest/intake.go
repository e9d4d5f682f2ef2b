package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindwell/internal/domain"
	"mindwell/internal/service"
)

// @Summary Анкета клиента
// @Description Возвращает медицинскую анкету. Владелец и администратор видят её всегда, специалист — при наличии активной сессии с клиентом
// @Tags Анкеты
// @Produce json
// @Param id path int true "ID клиента"
// @Success 200 {object} domain.MedicalProfile "Анкета"
// @Failure 403 {object} errorResponseBody "Нет доступа"
// @Failure 404 {object} errorResponseBody "Анкета не найдена"
// @Security ApiKeyAuth
// @Router /clients/{id}/medical-profile [get]
func (h *Handler) getMedicalProfile(c *gin.Context) {
	requesterID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	role, err := getUserRole(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	profile, err := h.services.Intake.GetMedicalProfile(c.Request.Context(), clientID, requesterID, role)
	if err != nil {
		if errors.Is(err, service.ErrProfileAccessDenied) {
			forbiddenResponse(c, err.Error())
			return
		}
		notFoundResponse(c, err.Error())
		return
	}

	successResponse(c, http.StatusOK, profile)
}

// @Summary Обновить анкету клиента
// @Description Частичное обновление анкеты: передаются только изменяемые поля
// @Tags Анкеты
// @Accept json
// @Produce json
// @Param id path int true "ID клиента"
// @Param input body domain.UpdateMedicalProfileDTO true "Изменяемые поля"
// @Success 200 {object} responseEnvelope "Анкета сохранена"
// @Failure 403 {object} errorResponseBody "Чужая анкета"
// @Security ApiKeyAuth
// @Router /clients/{id}/medical-profile [patch]
func (h *Handler) updateMedicalProfile(c *gin.Context) {
	requesterID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	role, err := getUserRole(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	clientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	// Анкету меняет только её владелец или администратор.
	if role != domain.UserRoleAdmin && requesterID != clientID {
		forbiddenResponse(c)
		return
	}

	var req domain.UpdateMedicalProfileDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.Intake.UpdateMedicalProfile(c.Request.Context(), clientID, req); err != nil {
		h.logger.Error("ошибка сохранения анкеты", zap.Int64("clientId", clientID), zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	messageResponse(c, http.StatusOK, "анкета сохранена")
}

// @Summary Шаг мастера регистрации
// @Description Валидирует данные текущего шага и возвращает новое состояние мастера. Подтверждение шага review создаёт аккаунт
// @Tags Регистрация
// @Accept json
// @Produce json
// @Param input body domain.WizardStepRequest true "Состояние мастера с данными шага"
// @Success 200 {object} domain.SignupWizardState "Новое состояние или ошибки полей"
// @Failure 400 {object} errorResponseBody "Неверный формат данных"
// @Router /signup/step [post]
func (h *Handler) processSignupStep(c *gin.Context) {
	var req domain.WizardStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	state, err := h.services.Intake.ProcessWizardStep(c.Request.Context(), req.State)
	if err != nil {
		h.logger.Error("ошибка обработки шага регистрации", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	successResponse(c, http.StatusOK, state)
}
