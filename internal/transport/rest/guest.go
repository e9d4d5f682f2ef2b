package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindwell/internal/domain"
	"mindwell/internal/service"
)

// @Summary Гостевая бронь
// @Description Создает заявку на сессию без аккаунта. Гостю уходит письмо со ссылкой на оплату
// @Tags Гостевые брони
// @Accept json
// @Produce json
// @Param input body domain.CreateGuestBookingDTO true "Контакты гостя и параметры сессии"
// @Success 201 {object} domain.GuestBooking "Созданная бронь"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 501 {object} errorResponseBody "Платежи не настроены"
// @Router /guest-bookings [post]
func (h *Handler) createGuestBooking(c *gin.Context) {
	var req domain.CreateGuestBookingDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	booking, err := h.services.GuestBooking.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentsNotConfigured) {
			errorResponse(c, http.StatusNotImplemented, err.Error())
			return
		}
		h.logger.Error("ошибка создания гостевой брони", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	createdResponse(c, booking)
}

// @Summary Статус гостевой брони
// @Tags Гостевые брони
// @Produce json
// @Param reference path string true "Номер брони"
// @Success 200 {object} domain.GuestBooking "Бронь"
// @Failure 404 {object} errorResponseBody "Бронь не найдена"
// @Router /guest-bookings/{reference} [get]
func (h *Handler) getGuestBooking(c *gin.Context) {
	booking, err := h.services.GuestBooking.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		notFoundResponse(c, "бронь не найдена")
		return
	}

	successResponse(c, http.StatusOK, booking)
}

// @Summary Подтвердить оплату брони
// @Description Помечает бронь оплаченной после успешного платежа. Повторный вызов безопасен
// @Tags Гостевые брони
// @Produce json
// @Param reference path string true "Номер брони"
// @Success 200 {object} responseEnvelope "Оплата подтверждена"
// @Failure 404 {object} errorResponseBody "Бронь не найдена"
// @Router /guest-bookings/{reference}/confirm [post]
func (h *Handler) confirmGuestPayment(c *gin.Context) {
	if err := h.services.GuestBooking.ConfirmPayment(c.Request.Context(), c.Param("reference")); err != nil {
		h.logger.Error("ошибка подтверждения оплаты", zap.Error(err))
		notFoundResponse(c, err.Error())
		return
	}

	messageResponse(c, http.StatusOK, "оплата подтверждена")
}
