package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/middleware"
)

// newRoleRouter 构造一条由 RequireRole 保护的路由，
// 前置中间件模拟 Auth 把角色写入上下文。
func newRoleRouter(role string, setRole bool, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if setRole {
			c.Set(middleware.ContextRoleKey, role)
		}
	})
	router.POST("/guarded", middleware.RequireRole(allowed...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return router
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name     string
		role     string
		setRole  bool
		expected int
	}{
		{"TeamLeaderAllowed", "team_leader", true, http.StatusOK},
		{"ManagerAllowed", "manager", true, http.StatusOK},
		{"AdminAllowed", "admin", true, http.StatusOK},
		{"WorkerForbidden", "worker", true, http.StatusForbidden},
		{"UnknownRoleForbidden", "guest", true, http.StatusForbidden},
		{"MissingRoleForbidden", "", false, http.StatusForbidden},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			router := newRoleRouter(c.role, c.setRole, "team_leader", "manager", "admin")
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, c.expected, w.Code, "角色 %q 的响应码不符", c.role)
		})
	}
}

func TestRequireRole_PanicsWithoutRoles(t *testing.T) {
	assert.Panics(t, func() { middleware.RequireRole() }, "空角色集合应在启动时失败")
}
