package controller

import (
	"exam-grading-be/internal/apperror"
	"exam-grading-be/internal/pkg/serverutils"
	"exam-grading-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type INotificationController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	MarkAsRead(ctx *fiber.Ctx) error
	MarkAllAsRead(ctx *fiber.Ctx) error
}

type notificationController struct {
	notificationService service.INotificationService
}

func NewNotificationController(notificationService service.INotificationService) INotificationController {
	return &notificationController{
		notificationService: notificationService,
	}
}

func (c *notificationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notification/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Put(":id/read", c.MarkAsRead)
	h.Put("read-all", c.MarkAllAsRead)
}

func (c *notificationController) List(ctx *fiber.Ctx) error {
	userId, err := localUserId(ctx)
	if err != nil {
		return err
	}

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.notificationService.GetNotifications(ctx.UserContext(), userId, limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list notifications", res))
}

func (c *notificationController) MarkAsRead(ctx *fiber.Ctx) error {
	userId, err := localUserId(ctx)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.New(apperror.CodeBadRequest, "invalid notification id")
	}

	if err := c.notificationService.MarkAsRead(ctx.UserContext(), userId, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success mark notification read", nil))
}

func (c *notificationController) MarkAllAsRead(ctx *fiber.Ctx) error {
	userId, err := localUserId(ctx)
	if err != nil {
		return err
	}

	if err := c.notificationService.MarkAllAsRead(ctx.UserContext(), userId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success mark all notifications read", nil))
}

func localUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.CodeAuth, "missing user identity")
	}
	return userId, nil
}
