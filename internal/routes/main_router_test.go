package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"todo-api/internal/dto"
	"todo-api/internal/repositories"
	"todo-api/pkg/config"
	"todo-api/pkg/customvalidator"
	"todo-api/pkg/eventbus"
	"todo-api/pkg/service"
	"todo-api/pkg/utils"
)

const testPassword = "Password@123"

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

type RouterTestSuite struct {
	suite.Suite
	echo  *echo.Echo
	redis *miniredis.Miniredis
	now   time.Time
}

func (s *RouterTestSuite) clock() time.Time { return s.now }

func (s *RouterTestSuite) SetupTest() {
	s.now = time.Now()
	s.redis = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		JWT:   config.JWTConfig{SecretKey: "router-secret", AccessTokenTTL: 30 * time.Second, RefreshTokenTTL: 50 * time.Second},
		Redis: config.RedisConfig{PermissionCacheTTL: time.Minute},
	}
	s.echo = newTestServer(cfg, repositories.NewRedisCacheRepository(client), s.clock)
}

// newTestServer wires the full router over the memory store.
func newTestServer(cfg *config.Config, cache repositories.CacheRepositoryInterface, clock func() time.Time) *echo.Echo {
	e := echo.New()
	v := validator.New()
	customvalidator.RegisterCustomValidations(v)
	e.Validator = utils.NewValidator(v)
	e.HTTPErrorHandler = utils.NewHTTPErrorHandler(zap.NewNop())

	store := repositories.NewMemoryStore()
	InitRouter(e, Deps{
		UserRepo: repositories.NewMemoryUserRepository(store),
		TodoRepo: repositories.NewMemoryTodoRepository(store),
		Cache:    cache,
		JWT:      service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, service.WithClock(clock)),
		Events:   eventbus.New(zap.NewNop()),
		Config:   cfg,
		Loggers:  NewLoggers(zap.NewNop()),
	})
	return e
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) request(method, path string, body interface{}, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *RouterTestSuite) decode(rec *httptest.ResponseRecorder) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (s *RouterTestSuite) signUp(email, role string, permissions ...string) {
	rec := s.request(http.MethodPost, "/auth/signUp", dto.SignUpDTO{
		Name:        "Name " + email,
		Email:       email,
		Password:    testPassword,
		Role:        role,
		Permissions: permissions,
	}, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *RouterTestSuite) login(email string) dto.TokenPairDTO {
	rec := s.request(http.MethodPost, "/auth/login", dto.LoginDTO{Email: email, Password: testPassword}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var pair dto.TokenPairDTO
	s.Require().NoError(json.Unmarshal(s.decode(rec).Body, &pair))
	return pair
}

func (s *RouterTestSuite) cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (s *RouterTestSuite) TestBaseRoute() {
	rec := s.request(http.MethodGet, "/", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("TODO CRUD", rec.Body.String())
}

func (s *RouterTestSuite) TestSignUp() {
	s.signUp("sarad@example.com", "user", "users.get")

	rec := s.request(http.MethodPost, "/auth/signUp", dto.SignUpDTO{
		Name: "Again", Email: "sarad@example.com", Password: testPassword, Role: "user",
	}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("User already exists with that email", s.decode(rec).Message)

	rec = s.request(http.MethodPost, "/auth/signUp", dto.SignUpDTO{
		Name: "Weak", Email: "weak@example.com", Password: "password", Role: "admin",
	}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	env := s.decode(rec)
	s.False(env.Status)
	s.Contains(env.Message, "password needs at least one uppercase")
	s.Contains(env.Message, "role must be either 'user' or 'superUser'")
}

func (s *RouterTestSuite) TestLogin() {
	s.signUp("sarad@example.com", "user")

	rec := s.request(http.MethodPost, "/auth/login", dto.LoginDTO{Email: "sarad@example.com", Password: testPassword}, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	for _, name := range []string{utils.AccessTokenCookie, utils.RefreshTokenCookie} {
		c := s.cookie(rec, name)
		s.Require().NotNil(c, name)
		s.True(c.HttpOnly)
		s.NotEmpty(c.Value)
	}

	rec = s.request(http.MethodPost, "/auth/login", dto.LoginDTO{Email: "sarad@example.com", Password: "Wrong@1234"}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid email or password", s.decode(rec).Message)
}

func (s *RouterTestSuite) TestAuthHeaderErrors() {
	rec := s.request(http.MethodGet, "/todos", nil, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("token not found", s.decode(rec).Message)

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set(echo.HeaderAuthorization, "Token abc")
	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Invalid token", s.decode(rec).Message)

	rec = s.request(http.MethodGet, "/todos", nil, "not-a-jwt")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Unauthenticated", s.decode(rec).Message)

	s.signUp("sarad@example.com", "user", "users.get")
	pair := s.login("sarad@example.com")
	rec = s.request(http.MethodGet, "/todos", nil, pair.RefreshToken)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterTestSuite) TestTodoLifecycle() {
	s.signUp("sarad@example.com", "user", "users.get", "users.create", "users.update", "users.delete")
	token := s.login("sarad@example.com").AccessToken

	rec := s.request(http.MethodPost, "/todos", map[string]interface{}{"title": "wash car"}, token)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("completion status is required and should be boolean", s.decode(rec).Message)

	rec = s.request(http.MethodPost, "/todos", map[string]interface{}{"title": "wash car", "completed": "nope"}, token)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = s.request(http.MethodPost, "/todos", map[string]interface{}{"title": "wash car", "completed": false}, token)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	env := s.decode(rec)
	s.Equal("todos created", env.Message)
	var created dto.TodoDTO
	s.Require().NoError(json.Unmarshal(env.Body, &created))

	rec = s.request(http.MethodGet, "/todos?q=WASH", nil, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []dto.TodoDTO
	s.Require().NoError(json.Unmarshal(s.decode(rec).Body, &list))
	s.Len(list, 1)

	path := fmt.Sprintf("/todos/%d", created.ID)
	rec = s.request(http.MethodPut, path, map[string]interface{}{"completed": true}, token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var updated dto.TodoDTO
	s.Require().NoError(json.Unmarshal(s.decode(rec).Body, &updated))
	s.True(updated.Completed)
	s.Equal("wash car", updated.Title)

	rec = s.request(http.MethodPut, path, map[string]interface{}{"title": ""}, token)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = s.request(http.MethodDelete, path, nil, token)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("todo deletion successful", s.decode(rec).Message)

	rec = s.request(http.MethodGet, path, nil, token)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(fmt.Sprintf("Todo with id: %d doesnt exist", created.ID), s.decode(rec).Message)
}

func (s *RouterTestSuite) TestTodoPermissions() {
	s.signUp("reader@example.com", "user", "users.get")
	token := s.login("reader@example.com").AccessToken

	rec := s.request(http.MethodGet, "/todos", nil, token)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("[]", string(s.decode(rec).Body))

	rec = s.request(http.MethodPost, "/todos", map[string]interface{}{"title": "x", "completed": true}, token)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("Forbidden", s.decode(rec).Message)

	s.signUp("admin@example.com", "superUser")
	admin := s.login("admin@example.com").AccessToken
	rec = s.request(http.MethodPost, "/todos", map[string]interface{}{"title": "x", "completed": true}, admin)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *RouterTestSuite) TestTodosAreOwnerScoped() {
	s.signUp("a@example.com", "superUser")
	s.signUp("b@example.com", "superUser")
	tokenA := s.login("a@example.com").AccessToken
	tokenB := s.login("b@example.com").AccessToken

	rec := s.request(http.MethodPost, "/todos", map[string]interface{}{"title": "mine", "completed": false}, tokenA)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.request(http.MethodGet, "/todos/1", nil, tokenB)
	s.Equal(http.StatusNotFound, rec.Code)
	rec = s.request(http.MethodDelete, "/todos/1", nil, tokenB)
	s.Equal(http.StatusNotFound, rec.Code)
	rec = s.request(http.MethodGet, "/todos/1", nil, tokenA)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterTestSuite) TestRefreshEndpoint() {
	s.signUp("sarad@example.com", "user")
	pair := s.login("sarad@example.com")

	rec := s.request(http.MethodPost, "/auth/refresh", dto.RefreshDTO{RefreshToken: pair.RefreshToken}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var tokens dto.RefreshedTokensDTO
	s.Require().NoError(json.Unmarshal(s.decode(rec).Body, &tokens))
	s.NotEmpty(tokens.NewAccessToken)
	s.NotEmpty(tokens.NewRefreshToken)

	rec = s.request(http.MethodPost, "/auth/refresh", nil, "",
		&http.Cookie{Name: utils.RefreshTokenCookie, Value: pair.RefreshToken})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodPost, "/auth/refresh", dto.RefreshDTO{RefreshToken: pair.AccessToken}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("refresh token invalid", s.decode(rec).Message)
}

func (s *RouterTestSuite) TestExpiredAccessTokenIsRefreshed() {
	s.signUp("sarad@example.com", "user", "users.get")
	pair := s.login("sarad@example.com")
	s.now = s.now.Add(31 * time.Second)

	rec := s.request(http.MethodGet, "/auth/me", nil, pair.AccessToken)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Refresh token missing", s.decode(rec).Message)

	refreshCookie := &http.Cookie{Name: utils.RefreshTokenCookie, Value: pair.RefreshToken}
	rec = s.request(http.MethodGet, "/auth/me", nil, pair.AccessToken, refreshCookie)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.NotNil(s.cookie(rec, utils.AccessTokenCookie))
	s.NotNil(s.cookie(rec, utils.RefreshTokenCookie))
	s.Contains(string(s.decode(rec).Body), `"email":"sarad@example.com"`)

	s.now = s.now.Add(20 * time.Second)
	rec = s.request(http.MethodGet, "/auth/me", nil, pair.AccessToken, refreshCookie)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Failed to verify refresh token", s.decode(rec).Message)
}

func (s *RouterTestSuite) TestLogoutClearsCookies() {
	rec := s.request(http.MethodPost, "/auth/logout", nil, "")
	s.Equal(http.StatusOK, rec.Code)
	c := s.cookie(rec, utils.RefreshTokenCookie)
	s.Require().NotNil(c)
	s.Empty(c.Value)
	s.Equal(-1, c.MaxAge)
}

func (s *RouterTestSuite) TestUsersRequireSuperUser() {
	s.signUp("sarad@example.com", "user", "users.get", "users.create", "users.update", "users.delete")
	token := s.login("sarad@example.com").AccessToken

	rec := s.request(http.MethodGet, "/users", nil, token)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("forbidden", s.decode(rec).Message)
}

func (s *RouterTestSuite) TestUserAdministration() {
	s.signUp("admin@example.com", "superUser")
	s.signUp("sarad@example.com", "user")
	admin := s.login("admin@example.com").AccessToken

	rec := s.request(http.MethodGet, "/users?q=sarad&page=1&size=5", nil, admin)
	s.Require().Equal(http.StatusOK, rec.Code)
	var page struct {
		List       []dto.UserDTO `json:"list"`
		Pagination struct {
			TotalCount uint64 `json:"total_count"`
			TotalPages int    `json:"total_pages"`
			Page       int    `json:"page"`
			Limit      int    `json:"limit"`
		} `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(s.decode(rec).Body, &page))
	s.Require().Len(page.List, 1)
	s.Equal("sarad@example.com", page.List[0].Email)
	s.Equal(uint64(1), page.Pagination.TotalCount)
	s.Equal(5, page.Pagination.Limit)

	rec = s.request(http.MethodPost, "/users", dto.CreateUserDTO{Name: "New", Email: "new@example.com", Password: testPassword}, admin)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal("User created successfully", s.decode(rec).Message)

	rec = s.request(http.MethodPost, "/users/role", dto.CreateRoleDTO{UserRole: "superUser", UserID: 2}, admin)
	s.Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.request(http.MethodPost, "/users/permissions", dto.CreatePermissionDTO{PermissionType: "users.get", UserID: 2}, admin)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var grant dto.UserPermissionDTO
	s.Require().NoError(json.Unmarshal(s.decode(rec).Body, &grant))
	s.Require().NotNil(grant.CreatedBy)
	s.Equal(uint64(1), *grant.CreatedBy)

	rec = s.request(http.MethodPost, "/users/permissions", dto.CreatePermissionDTO{PermissionType: "users.fly", UserID: 2}, admin)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.request(http.MethodPost, "/users/role", dto.CreateRoleDTO{UserRole: "user", UserID: 99}, admin)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodGet, "/users/2", nil, admin)
	s.Require().Equal(http.StatusOK, rec.Code)
	var user dto.UserDTO
	s.Require().NoError(json.Unmarshal(s.decode(rec).Body, &user))
	s.Equal("superUser", user.Role)
	s.Equal([]string{"users.get"}, user.Permissions)

	name := "Renamed"
	rec = s.request(http.MethodPut, "/users/2", dto.UpdateUserDTO{Name: &name}, admin)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodDelete, "/users/2", nil, admin)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("user deletion successful", s.decode(rec).Message)

	rec = s.request(http.MethodGet, "/users/2", nil, admin)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("User with id: 2 doesnt exist", s.decode(rec).Message)

	rec = s.request(http.MethodGet, "/users/abc", nil, admin)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.request(http.MethodGet, "/users/9223372036854775808", nil, admin)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestUsersOutOfRangePage() {
	s.signUp("admin@example.com", "superUser")
	s.signUp("sarad@example.com", "user")
	admin := s.login("admin@example.com").AccessToken

	rec := s.request(http.MethodGet, "/users?page=1000000000000000000", nil, admin)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		List       []dto.UserDTO `json:"list"`
		Pagination struct {
			TotalCount uint64 `json:"total_count"`
			Page       int    `json:"page"`
		} `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(s.decode(rec).Body, &page))
	s.Equal(1, page.Pagination.Page)
	s.Equal(uint64(2), page.Pagination.TotalCount)
	s.Len(page.List, 2)
}

func (s *RouterTestSuite) TestUserExport() {
	s.signUp("admin@example.com", "superUser")
	s.signUp("sarad@example.com", "user", "users.get")
	admin := s.login("admin@example.com").AccessToken

	rec := s.request(http.MethodGet, "/users/export", nil, admin)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
	s.Contains(rec.Header().Get(echo.HeaderContentDisposition), "attachment; filename=users_")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	s.Require().NoError(err)
	defer f.Close()

	rows, err := f.GetRows("Users")
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal("Email", rows[0][2])
	s.Equal("sarad@example.com", rows[2][2])
	s.Equal("users.get", rows[2][4])
}

func (s *RouterTestSuite) TestRoleChangeReachesNextLogin() {
	s.signUp("admin@example.com", "superUser")
	s.signUp("sarad@example.com", "user")
	admin := s.login("admin@example.com").AccessToken
	token := s.login("sarad@example.com").AccessToken

	rec := s.request(http.MethodGet, "/users", nil, token)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.request(http.MethodPost, "/users/role", dto.CreateRoleDTO{UserRole: "superUser", UserID: 2}, admin)
	s.Require().Equal(http.StatusCreated, rec.Code)

	token = s.login("sarad@example.com").AccessToken
	rec = s.request(http.MethodGet, "/users", nil, token)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterTestSuite) TestUnknownRouteUsesEnvelope() {
	rec := s.request(http.MethodGet, "/nope", nil, "")
	s.Equal(http.StatusNotFound, rec.Code)
	env := s.decode(rec)
	s.False(env.Status)
	s.NotEmpty(env.Message)
}
