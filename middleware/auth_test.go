package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiratheer/aklyplus/models"
)

var testSecret = []byte("test_secret")

func protectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", AuthRequired(testSecret))
	if len(roles) > 0 {
		group.Use(RoleRequired(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":       GetUserID(c),
			"role":          GetRole(c),
			"restaurant_id": GetRestaurantID(c),
		})
	})
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := protectedRouter()

	token, err := GenerateToken(models.User{
		ID: "u1", Email: "a@b.c", Role: models.RoleOwner, RestaurantID: "r1",
	}, testSecret)
	require.NoError(t, err)

	w := doGet(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
	assert.Contains(t, w.Body.String(), `"restaurant_id":"r1"`)
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	w := doGet(protectedRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredBadToken(t *testing.T) {
	w := doGet(protectedRouter(), "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredWrongSecret(t *testing.T) {
	token, err := GenerateToken(models.User{ID: "u1", Role: models.RoleAdmin}, []byte("other_secret"))
	require.NoError(t, err)

	w := doGet(protectedRouter(), token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleRequired(t *testing.T) {
	r := protectedRouter(models.RoleAdmin)

	adminToken, err := GenerateToken(models.User{ID: "a1", Role: models.RoleAdmin}, testSecret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doGet(r, adminToken).Code)

	customerToken, err := GenerateToken(models.User{ID: "c1", Role: models.RoleCustomer}, testSecret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doGet(r, customerToken).Code)
}

func TestRoleRequiredAcceptsAnyListedRole(t *testing.T) {
	r := protectedRouter(models.RoleKitchen, models.RoleOwner)

	for _, role := range []models.UserRole{models.RoleKitchen, models.RoleOwner} {
		token, err := GenerateToken(models.User{ID: "u", Role: role}, testSecret)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, doGet(r, token).Code, "role %s", role)
	}

	token, err := GenerateToken(models.User{ID: "u", Role: models.RoleDelivery}, testSecret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doGet(r, token).Code)
}
