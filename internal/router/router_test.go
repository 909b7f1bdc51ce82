package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/menu-catalog/internal/config"
	"github.com/iliyamo/menu-catalog/internal/handler"
	"github.com/iliyamo/menu-catalog/internal/logger"
	"github.com/iliyamo/menu-catalog/internal/model"
	"github.com/iliyamo/menu-catalog/internal/repository/memstore"
	"github.com/iliyamo/menu-catalog/internal/service"
)

const testSecret = "router-test-secret"

type server struct {
	t     *testing.T
	e     *echo.Echo
	store *memstore.Store
}

func newServer(t *testing.T, checks map[string]handler.Check) *server {
	t.Helper()
	st := memstore.New()
	log := logger.Nop()
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 15, BcryptCost: 4}

	catalogs := service.NewCatalogService(st.Catalogs(), st.Companies(), st.Items(), st.Essentials(),
		service.WithQRBasePath("https://menu.example.com"),
	)
	client := service.NewClientService(st.Catalogs(), st.Companies(), st.Items())

	e := echo.New()
	e.Validator = handler.NewRequestValidator()
	RegisterRoutes(e, checks)
	RegisterAuth(e, handler.NewAuthHandler(cfg, st.Users(), log), testSecret)
	RegisterCatalogs(e, handler.NewCatalogHandler(catalogs, log), testSecret)
	RegisterClient(e, handler.NewClientHandler(client, log))
	return &server{t: t, e: e, store: st}
}

func (s *server) call(method, target, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its id and access token.
func (s *server) register(email, role string) (uint64, string) {
	s.t.Helper()
	rec := s.call(http.MethodPost, "/v1/auth/register", "", echo.Map{
		"name": "Test User", "email": email, "password": "12345678", "role": role,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		User struct {
			ID uint64 `json:"id"`
		} `json:"user"`
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.User.ID, out.Access.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestHealthAndReady(t *testing.T) {
	s := newServer(t, map[string]handler.Check{
		"ok":   func(context.Context) error { return nil },
		"down": func(context.Context) error { return errors.New("connection refused") },
	})
	health := s.call(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "ok", health.Body.String())

	ready := s.call(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
	assert.JSONEq(t, `{"ok":"ok","down":"connection refused"}`, ready.Body.String())
}

func TestRegisterLoginMe(t *testing.T) {
	s := newServer(t, nil)
	id, token := s.register("owner@example.com", "")

	dup := s.call(http.MethodPost, "/v1/auth/register", "", echo.Map{
		"name": "Again", "email": "owner@example.com", "password": "12345678",
	})
	assert.Equal(t, http.StatusConflict, dup.Code)

	short := s.call(http.MethodPost, "/v1/auth/register", "", echo.Map{
		"name": "Short", "email": "short@example.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, short.Code)
	assert.Equal(t, "BAD_REQUEST", decode[errorBody](t, short).Code)

	bad := s.call(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "owner@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	login := s.call(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "owner@example.com", "password": "12345678"})
	require.Equal(t, http.StatusOK, login.Code)

	assert.Equal(t, http.StatusUnauthorized, s.call(http.MethodGet, "/v1/me", "", nil).Code)
	me := s.call(http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"name":"Test User","email":"owner@example.com","role":"OWNER"}`, id), me.Body.String())
}

func TestCatalogLifecycleOverHTTP(t *testing.T) {
	s := newServer(t, nil)
	ctx := context.Background()
	ownerID, token := s.register("owner@example.com", "OWNER")
	_, strangerToken := s.register("manager@example.com", "MANAGER")

	company := &model.Company{Name: "Chez Paul", CreatedBy: ownerID}
	require.NoError(t, s.store.Companies().CreateCompany(ctx, company))
	branch := &model.Branch{CompanyID: company.ID, Name: "Old Port"}
	require.NoError(t, s.store.Companies().CreateBranch(ctx, branch))
	soup := &model.Item{CompanyID: company.ID, Name: "Soup", Available: true}
	require.NoError(t, s.store.Items().Create(ctx, soup))

	assert.Equal(t, http.StatusUnauthorized, s.call(http.MethodPost, "/v1/catalogs", "", echo.Map{}).Code)

	invalid := s.call(http.MethodPost, "/v1/catalogs", token, echo.Map{"name": "Lunch", "branch": branch.ID, "days": []string{"funday"}})
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	created := s.call(http.MethodPost, "/v1/catalogs", token, echo.Map{
		"name":     "Lunch",
		"branch":   branch.ID,
		"days":     []string{"monday"},
		"sections": []echo.Map{{"order": 0, "name": "Starters"}},
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	cat := decode[struct {
		ID       uint64 `json:"id"`
		Sections []struct {
			ID string `json:"id"`
		} `json:"sections"`
	}](t, created)
	require.Len(t, cat.Sections, 1)
	base := fmt.Sprintf("/v1/catalogs/%d/section/%s", cat.ID, cat.Sections[0].ID)

	forbidden := s.call(http.MethodGet, fmt.Sprintf("/v1/catalogs/%d", cat.ID), strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, forbidden.Code)
	assert.Equal(t, "FORBIDDEN", decode[errorBody](t, forbidden).Code)

	missing := s.call(http.MethodGet, "/v1/catalogs/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	pushed := s.call(http.MethodPut, base+"/pushProduct", token, echo.Map{"item": soup.ID})
	require.Equal(t, http.StatusOK, pushed.Code, pushed.Body.String())
	sec := decode[struct {
		Items []struct {
			Item  struct{ Name string } `json:"item"`
			Actif bool                  `json:"actif"`
		} `json:"items"`
	}](t, pushed)
	require.Len(t, sec.Items, 1)
	assert.Equal(t, "Soup", sec.Items[0].Item.Name)
	assert.True(t, sec.Items[0].Actif)

	again := s.call(http.MethodPut, base+"/pushProduct", token, echo.Map{"item": soup.ID})
	assert.Equal(t, http.StatusConflict, again.Code)

	// the client sees the item until it is toggled off
	menu := s.call(http.MethodGet, "/v1/client/company/Chez%20Paul", "", nil)
	require.Equal(t, http.StatusOK, menu.Code, menu.Body.String())
	assert.Contains(t, menu.Body.String(), `"Soup"`)

	toggled := s.call(http.MethodPut, fmt.Sprintf("%s/toggle-item-actif/%d", base, soup.ID), token, nil)
	require.Equal(t, http.StatusOK, toggled.Code)

	menu = s.call(http.MethodGet, "/v1/client/company/Chez%20Paul", "", nil)
	require.Equal(t, http.StatusOK, menu.Code)
	view := decode[struct {
		Catalog struct {
			Sections []struct {
				Name  string            `json:"name"`
				Items []json.RawMessage `json:"items"`
			} `json:"sections"`
		} `json:"catalog"`
	}](t, menu)
	require.Len(t, view.Catalog.Sections, 1)
	assert.Equal(t, "Starters", view.Catalog.Sections[0].Name)
	assert.Empty(t, view.Catalog.Sections[0].Items)
	assert.NotContains(t, menu.Body.String(), `"items":null`)

	qr := s.call(http.MethodGet, fmt.Sprintf("/v1/catalogs/qr-code/%d", cat.ID), token, nil)
	require.Equal(t, http.StatusOK, qr.Code)
	assert.Equal(t, "image/png", qr.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(qr.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusBadRequest, s.call(http.MethodGet, "/v1/catalogs/abc", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.call(http.MethodGet, "/v1/client/company/Nobody", "", nil).Code)
}

func TestSwapSectionsOverHTTP(t *testing.T) {
	s := newServer(t, nil)
	ctx := context.Background()
	ownerID, token := s.register("owner@example.com", "OWNER")
	company := &model.Company{Name: "Esperoo", CreatedBy: ownerID}
	require.NoError(t, s.store.Companies().CreateCompany(ctx, company))
	branch := &model.Branch{CompanyID: company.ID, Name: "Tunis"}
	require.NoError(t, s.store.Companies().CreateBranch(ctx, branch))

	created := s.call(http.MethodPost, "/v1/catalogs", token, echo.Map{
		"name":   "Dinner",
		"branch": branch.ID,
		"sections": []echo.Map{
			{"order": 0, "name": "A"},
			{"order": 1, "name": "B"},
			{"order": 2, "name": "C"},
		},
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	type sectionView struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Order int    `json:"order"`
	}
	cat := decode[struct {
		ID       uint64        `json:"id"`
		Sections []sectionView `json:"sections"`
	}](t, created)

	swapped := s.call(http.MethodPut, fmt.Sprintf("/v1/catalogs/%d/swap?section=%s&order=0", cat.ID, cat.Sections[2].ID), token, nil)
	require.Equal(t, http.StatusOK, swapped.Code, swapped.Body.String())
	out := decode[struct {
		Sections []sectionView `json:"sections"`
	}](t, swapped)
	require.Len(t, out.Sections, 3)
	var names []string
	for i, sec := range out.Sections {
		names = append(names, sec.Name)
		assert.Equal(t, i, sec.Order)
	}
	assert.Equal(t, []string{"C", "A", "B"}, names)

	bad := s.call(http.MethodPut, fmt.Sprintf("/v1/catalogs/%d/swap?section=%s&order=x", cat.ID, cat.Sections[0].ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}
