package middleware

import (
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/session"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const placeholderPage = `<!doctype html><html lang="pt-BR"><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>BV Celular</title></head><body><p>Carregando...</p></body></html>`

// PublicRoute gates storefront pages. Employees are sent to the admin area.
func PublicRoute(next echo.HandlerFunc) echo.HandlerFunc {
	return routeGate(session.RoutePublic, "public", next)
}

// AdminRoute gates admin pages. Anonymous users go to the login page and
// customers to the home page.
func AdminRoute(next echo.HandlerFunc) echo.HandlerFunc {
	return routeGate(session.RouteAdmin, "admin", next)
}

func routeGate(route session.Route, name string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := session.FromContext(c)
		if err != nil {
			logger.FromContext(c).Error("Route gate used without session middleware", zap.Error(err))
			return err
		}

		decision := session.Decide(sess, route)
		switch decision.Kind {
		case session.DecisionRender:
			prometheus.RecordRouteDecision(name, "render")
			return next(c)
		case session.DecisionRedirect:
			prometheus.RecordRouteDecision(name, "redirect")
			return c.Redirect(http.StatusFound, decision.Location)
		default:
			prometheus.RecordRouteDecision(name, "placeholder")
			c.Response().Header().Set("Retry-After", "1")
			c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
			return c.HTML(http.StatusServiceUnavailable, placeholderPage)
		}
	}
}
