package handler

import (
	"context"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/middleware"
	"github.com/votemamu/web/internal/model"
	"github.com/votemamu/web/internal/session"
)

// Registrar creates marketplace accounts.  session.MarketAuth satisfies it.
type Registrar interface {
	Register(ctx context.Context, r api.Registration) (model.AuthResult, error)
}

// AuthHandler signs users in and out of one realm.  The browser only ever
// holds the signed session cookie; the backend token stays in the store.
type AuthHandler struct {
	Store  *session.Store
	Signer *session.Signer
	// Title heads the login page; Home is where a browser lands after login.
	Title     string
	LoginPath string
	Home      string
	Secure    bool
	Registrar Registrar
	Log       logging.Logger
}

func NewAuthHandler(store *session.Store, signer *session.Signer, loginPath, home string, log logging.Logger) *AuthHandler {
	if store == nil || signer == nil {
		panic("nil store or signer passed to NewAuthHandler")
	}
	title := "অ্যাডমিন লগইন"
	if store.Realm() == session.RealmMarket {
		title = "মার্কেটপ্লেস লগইন"
	}
	return &AuthHandler{Store: store, Signer: signer, Title: title, LoginPath: loginPath, Home: home, Log: logging.OrNoOp(log)}
}

type loginPage struct {
	Title  string
	Action string
	Next   string
	Email  string
	Error  string
}

// LoginPage renders the sign-in form.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login", loginPage{
		Title:  h.Title,
		Action: h.LoginPath,
		Next:   safeNext(c.QueryParam("next"), h.Home),
	})
}

// Login accepts JSON or a posted form.  Browsers are redirected to next;
// scripts get the user and the cookie value to use as a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var cred session.Credentials
	if err := c.Bind(&cred); err != nil {
		return badRequest(c, "invalid body")
	}
	cred.Email = strings.ToLower(strings.TrimSpace(cred.Email))

	sess, err := h.Store.Login(c.Request().Context(), cred)
	if err != nil {
		h.Log.Info("login rejected", "realm", h.Store.Realm(), "email", cred.Email, "error", err)
		if isFormPost(c) {
			status, body := errorBody(err)
			return c.Render(status, "login", loginPage{
				Title:  h.Title,
				Action: h.LoginPath,
				Next:   safeNext(c.FormValue("next"), h.Home),
				Email:  cred.Email,
				Error:  body["message"].(string),
			})
		}
		return fail(c, err)
	}
	return h.signedIn(c, sess, http.StatusOK)
}

func (h *AuthHandler) signedIn(c echo.Context, sess session.Session, status int) error {
	if err := middleware.SetSessionCookie(c, h.Signer, sess, h.Secure); err != nil {
		return fail(c, err)
	}
	if isFormPost(c) {
		return c.Redirect(http.StatusSeeOther, safeNext(c.FormValue("next"), h.Home))
	}
	token, err := h.Signer.Sign(sess)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status, echo.Map{"user": sess.User, "expires_at": sess.ExpiresAt, "token": token})
}

// Logout ends the session named by the cookie, if any, and always clears
// the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	realm := h.Store.Realm()
	if sid := middleware.SessionID(c, h.Signer, realm); sid != "" {
		if err := h.Store.Logout(c.Request().Context(), sid); err != nil {
			h.Log.Warn("logout failed", "realm", realm, "error", err)
		}
	}
	middleware.ClearSessionCookie(c, realm, h.Secure)
	if isFormPost(c) || middleware.WantsHTML(c) {
		return c.Redirect(http.StatusSeeOther, h.LoginPath)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c echo.Context) error {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return fail(c, session.ErrNoSession)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": sess.User, "expires_at": sess.ExpiresAt})
}

type registerReq struct {
	Name                 string `json:"name" form:"name"`
	Email                string `json:"email" form:"email"`
	Phone                string `json:"phone" form:"phone"`
	Password             string `json:"password" form:"password"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
	Role                 string `json:"role" form:"role"`
}

func (r registerReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Phone, forms.Phone),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&r.PasswordConfirmation, validation.Required,
			validation.In(r.Password).Error("পাসওয়ার্ড মিলছে না")),
		validation.Field(&r.Role, validation.In(model.RoleBuyer, model.RoleCreator)),
	)
}

// Register creates a marketplace account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	if h.Registrar == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "registration is closed"})
	}
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := forms.Check(req, "REGISTER_INVALID"); err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	res, err := h.Registrar.Register(ctx, api.Registration{
		Name:                 req.Name,
		Email:                req.Email,
		Phone:                req.Phone,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		Role:                 req.Role,
	})
	if err != nil {
		return fail(c, err)
	}
	sess, err := h.Store.Adopt(ctx, res)
	if err != nil {
		return fail(c, err)
	}
	return h.signedIn(c, sess, http.StatusCreated)
}

func isFormPost(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

// safeNext keeps redirects on this site.
func safeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
