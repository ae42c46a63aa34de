package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/http/handler"
	"voicedesk.app/server/internal/http/middleware"
	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/service"
)

var _ = Describe("AuthHandler", func() {
	var (
		router *gin.Engine
		auth   *mockAuthService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		auth = &mockAuthService{}
		h := handler.NewAuthHandler(auth, false)
		router = gin.New()
		router.GET("/auth/url", h.GetAuthURL)
		router.POST("/auth/exchange", h.Exchange)
		router.GET("/auth/validate", h.ValidateSession)
		router.POST("/auth/logout", h.Logout)
	})

	It("returns an authorization url with a fresh state", func() {
		auth.authURLFn = func(state string) (string, error) {
			return "https://auth.example.com/?state=" + state, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/auth/url", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]string
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["state"]).NotTo(BeEmpty())
		Expect(resp["authorization_url"]).To(HaveSuffix(resp["state"]))
	})

	Describe("Exchange", func() {
		It("returns the user and sets the session cookie", func() {
			auth.callbackFn = func(_ context.Context, code string) (*model.User, *model.Session, error) {
				Expect(code).To(Equal("code_123"))
				return &model.User{ID: 7, Name: "Dana", Email: "dana@example.com"},
					&model.Session{ID: 99, UserID: 7, ExpiresAt: time.Now().Add(time.Hour)}, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/exchange", bytes.NewBufferString(`{"code":"code_123"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["session_id"]).To(Equal("99"))
			Expect(resp["user"]).To(HaveKeyWithValue("email", "dana@example.com"))
			Expect(w.Header().Get("Set-Cookie")).To(ContainSubstring(middleware.SessionCookieName + "=99"))
		})

		It("returns 400 for an invalid code", func() {
			auth.callbackFn = func(context.Context, string) (*model.User, *model.Session, error) {
				return nil, nil, service.ErrInvalidCode
			}
			req := httptest.NewRequest(http.MethodPost, "/auth/exchange", bytes.NewBufferString(`{"code":"bad"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when the identity provider fails", func() {
			auth.callbackFn = func(context.Context, string) (*model.User, *model.Session, error) {
				return nil, nil, errors.New("workos down")
			}
			req := httptest.NewRequest(http.MethodPost, "/auth/exchange", bytes.NewBufferString(`{"code":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("ValidateSession", func() {
		It("returns 401 without a header", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/validate", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns 401 for an expired session", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/validate", nil)
			req.Header.Set(middleware.SessionIDHeader, "99")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns the user for a live session", func() {
			auth.validateFn = func(_ context.Context, sessionID int64) (*model.User, error) {
				Expect(sessionID).To(Equal(int64(99)))
				return &model.User{ID: 7, Name: "Dana"}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/auth/validate", nil)
			req.Header.Set(middleware.SessionIDHeader, "99")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"id":"7"`))
		})
	})

	It("logs out even when the session is already gone", func() {
		auth.logoutFn = func(context.Context, int64) error {
			return errors.New("not found")
		}
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", bytes.NewBufferString(`{"session_id":"99"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))
	})
})
