package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// PhoneRegion is the default region used to parse national phone numbers.
const PhoneRegion = "SN"

// APIResponse is the JSON envelope returned by every endpoint.
type APIResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
	Errors  map[string]any `json:"errors,omitempty"`
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Auth   *Authenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auth == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithAuthenticator(auth *Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auth = auth
		return c
	}
}

// RegisterAuthRoutes mounts the auth endpoints under /api/auth. Registration
// is restricted to roles that may manage users; password change and profile
// lookup only need a valid session.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	verifier := controller.Auth.TokenService()

	routes := app.Group("/api/auth")

	routes.Post("/login", controller.Login)
	routes.Post("/logout", controller.Logout)

	routes.Post("/register",
		RequireAuth(verifier, controller.Logger),
		RequireRole(RoleAdmin, RoleDirecteur),
		controller.Register,
	)

	routes.Post("/change-password",
		RequireAuth(verifier, controller.Logger),
		controller.ChangePassword,
	)

	routes.Get("/me",
		RequireAuth(verifier, controller.Logger),
		controller.Me,
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return badRequest(c, "invalid request body", nil)
	}

	if err := payload.Validate(); err != nil {
		return badRequest(c, "validation failed", validationErrors(err))
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	result, err := a.Auth.Login(c.UserContext(), payload.Email, payload.Password, requestMeta(c))
	if err != nil {
		if IsAuthFailure(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(APIResponse{
				Success: false,
				Message: GenericAuthFailureMessage,
			})
		}
		return a.fail(c, err)
	}

	return c.JSON(APIResponse{
		Success: true,
		Message: "login successful",
		Data:    result,
	})
}

func (a *AuthController) Logout(c *fiber.Ctx) error {
	// Tokens are stateless; the client discards its copy.
	return c.JSON(APIResponse{
		Success: true,
		Message: "logged out",
	})
}

// RegisterRequest is the account creation payload
type RegisterRequest struct {
	Email        string `form:"email" json:"email"`
	Password     string `form:"password" json:"password"`
	FirstName    string `form:"first_name" json:"first_name"`
	LastName     string `form:"last_name" json:"last_name"`
	Phone        string `form:"phone_number" json:"phone_number"`
	Role         string `form:"role" json:"role"`
	SupervisorID string `form:"supervisor_id" json:"supervisor_id"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber(PhoneRegion))),
		validation.Field(&r.Role, validation.Required, validation.By(ValidateUserRole)),
		validation.Field(&r.SupervisorID, is.UUIDv4),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return badRequest(c, "invalid request body", nil)
	}

	if err := payload.Validate(); err != nil {
		return badRequest(c, "validation failed", validationErrors(err))
	}

	claims := ClaimsFromFiber(c)
	if claims == nil {
		return unauthorized(c)
	}

	creatorID, err := uuid.Parse(claims.UserID())
	if err != nil {
		a.Logger.Error("register creator ID parse", "error", err)
		return unauthorized(c)
	}

	role, _ := ParseRole(payload.Role)

	input := RegisterInput{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
		Role:      role,
	}

	if payload.SupervisorID != "" {
		if sid, err := uuid.Parse(payload.SupervisorID); err == nil {
			input.SupervisorID = &sid
		}
	}

	user, err := a.Auth.Register(c.UserContext(), input, creatorID, requestMeta(c))
	if err != nil {
		return a.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Message: "user created",
		Data:    user,
	})
}

// ChangePasswordRequest payload
type ChangePasswordRequest struct {
	CurrentPassword string `form:"current_password" json:"currentPassword"`
	NewPassword     string `form:"new_password" json:"newPassword"`
}

// Validate will validate the payload
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) ChangePassword(c *fiber.Ctx) error {
	payload := new(ChangePasswordRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("change password parse payload", "error", err)
		return badRequest(c, "invalid request body", nil)
	}

	if err := payload.Validate(); err != nil {
		return badRequest(c, "validation failed", validationErrors(err))
	}

	claims := ClaimsFromFiber(c)
	if claims == nil {
		return unauthorized(c)
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		a.Logger.Error("change password user ID parse", "error", err)
		return unauthorized(c)
	}

	if err := a.Auth.ChangePassword(c.UserContext(), userID, payload.CurrentPassword, payload.NewPassword, requestMeta(c)); err != nil {
		return a.fail(c, err)
	}

	return c.JSON(APIResponse{
		Success: true,
		Message: "password updated",
	})
}

func (a *AuthController) Me(c *fiber.Ctx) error {
	claims := ClaimsFromFiber(c)
	if claims == nil {
		return unauthorized(c)
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		a.Logger.Error("me user ID parse", "error", err)
		return unauthorized(c)
	}

	user, err := a.Auth.Me(c.UserContext(), userID)
	if err != nil {
		return a.fail(c, err)
	}

	return c.JSON(APIResponse{
		Success: true,
		Data:    user,
	})
}

// fail maps a service error to an HTTP response using the error category.
func (a *AuthController) fail(c *fiber.Ctx, err error) error {
	status := statusFromError(err)

	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("auth controller internal error", "error", err)
		return c.Status(status).JSON(APIResponse{
			Success: false,
			Message: "internal server error",
		})
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: err.Error(),
	})
}

func statusFromError(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return fiber.StatusInternalServerError
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput, errors.CategoryConflict:
		return fiber.StatusBadRequest
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(c *fiber.Ctx, message string, errs map[string]any) error {
	return c.Status(fiber.StatusBadRequest).JSON(APIResponse{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(APIResponse{
		Success: false,
		Message: "authentication required",
	})
}

func requestMeta(c *fiber.Ctx) RequestMeta {
	return RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

func validationErrors(err error) map[string]any {
	out := map[string]any{}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}

// ValidateUserRole checks that the value names a known role.
func ValidateUserRole(value any) error {
	s, _ := value.(string)
	if _, ok := ParseRole(s); !ok {
		return fmt.Errorf("must be one of %v", GetAllRoles())
	}
	return nil
}

// ValidatePhoneNumber validates an optional phone number for the given
// region. Empty values pass; pair with validation.Required to force one.
func ValidatePhoneNumber(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		num, err := phonenumbers.Parse(s, region)
		if err != nil {
			return fmt.Errorf("invalid phone number: %v", err)
		}

		if !phonenumbers.IsValidNumber(num) {
			return fmt.Errorf("invalid phone number for region %s", region)
		}

		return nil
	}
}
