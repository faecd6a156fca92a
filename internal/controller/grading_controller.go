package controller

import (
	"exam-grading-be/internal/apperror"
	"exam-grading-be/internal/dto"
	"exam-grading-be/internal/pkg/serverutils"
	"exam-grading-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IGradingController interface {
	RegisterRoutes(r fiber.Router)
	Process(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	GetSessionBySubmission(ctx *fiber.Ctx) error
	GetResults(ctx *fiber.Ctx) error
	GetProgress(ctx *fiber.Ctx) error
	GetProgressHistory(ctx *fiber.Ctx) error
	Recover(ctx *fiber.Ctx) error
}

type gradingController struct {
	gradingService  service.IGradingService
	progressService service.IProgressService
}

func NewGradingController(gradingService service.IGradingService, progressService service.IProgressService) IGradingController {
	return &gradingController{
		gradingService:  gradingService,
		progressService: progressService,
	}
}

func (c *gradingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/grading/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("process", c.Process)
	h.Get("sessions/:session_id", c.GetSession)
	h.Get("submissions/:submission_id/session", c.GetSessionBySubmission)
	h.Get("sessions/:session_id/results", c.GetResults)
	h.Get("progress/:session_id", c.GetProgress)
	h.Get("progress/:session_id/history", c.GetProgressHistory)
	h.Post("recover/:session_id", c.Recover)
}

func (c *gradingController) Process(ctx *fiber.Ctx) error {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ProcessGradingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.gradingService.Process(ctx.UserContext(), userId, &req)
	if err != nil {
		// A failed run still carries the session so the caller can see
		// which step broke.
		if res != nil {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"success": false,
				"error":   res.ErrorMessage,
				"data":    res,
			})
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process grading", res))
}

func (c *gradingController) GetSession(ctx *fiber.Ctx) error {
	sessionId, err := parseParamId(ctx, "session_id")
	if err != nil {
		return err
	}

	res, err := c.gradingService.GetSession(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *gradingController) GetSessionBySubmission(ctx *fiber.Ctx) error {
	submissionId, err := parseParamId(ctx, "submission_id")
	if err != nil {
		return err
	}

	res, err := c.gradingService.GetSessionBySubmission(ctx.UserContext(), submissionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *gradingController) GetResults(ctx *fiber.Ctx) error {
	sessionId, err := parseParamId(ctx, "session_id")
	if err != nil {
		return err
	}

	res, err := c.gradingService.GetResults(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show results", res))
}

func (c *gradingController) GetProgress(ctx *fiber.Ctx) error {
	sessionId, err := parseParamId(ctx, "session_id")
	if err != nil {
		return err
	}

	res, err := c.progressService.GetProgress(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show progress", res))
}

func (c *gradingController) GetProgressHistory(ctx *fiber.Ctx) error {
	sessionId, err := parseParamId(ctx, "session_id")
	if err != nil {
		return err
	}

	res, err := c.progressService.GetHistory(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show progress history", res))
}

func (c *gradingController) Recover(ctx *fiber.Ctx) error {
	sessionId, err := parseParamId(ctx, "session_id")
	if err != nil {
		return err
	}

	var req dto.RecoverProgressRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.SessionId = sessionId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.progressService.Recover(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success recover session", res))
}

func parseParamId(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.New(apperror.CodeBadRequest, "invalid "+name)
	}
	return id, nil
}
