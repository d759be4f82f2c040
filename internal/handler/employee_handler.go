package handler

import (
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/service"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/session"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// EmployeeHandler manages staff accounts
type EmployeeHandler struct {
	employees *service.EmployeeService
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(employees *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// List returns every employee
func (h *EmployeeHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	employees, err := h.employees.List(c.Request().Context())
	if err != nil {
		return respondError(c, log, err, "list employees")
	}
	return c.JSON(http.StatusOK, employees)
}

// Get returns one employee
func (h *EmployeeHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, log, err, "get employee")
	}
	employee, err := h.employees.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, err, "get employee")
	}
	return c.JSON(http.StatusOK, employee)
}

// Create registers a staff account linked to at least one store
func (h *EmployeeHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req model.EmployeeInsert
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	employee, err := h.employees.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, log, err, "create employee")
	}

	prometheus.RecordEmployeeOperation("create")
	log.Info("Employee created",
		zap.Uint("employee_id", employee.ID),
		zap.String("role", employee.Role),
		zap.Int("stores", len(employee.Stores)))
	return c.JSON(http.StatusCreated, employee)
}

// Update changes role, status, name or stores of an employee
func (h *EmployeeHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, log, err, "update employee")
	}
	var req model.EmployeeUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if sess, err := session.FromContext(c); err == nil && sess.Employee != nil && sess.Employee.ID == id &&
		req.IsActive != nil && !*req.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "employees cannot deactivate themselves"})
	}

	employee, err := h.employees.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, log, err, "update employee")
	}

	prometheus.RecordEmployeeOperation("update")
	log.Info("Employee updated", zap.Uint("employee_id", employee.ID))
	return c.JSON(http.StatusOK, employee)
}

// Delete removes an employee profile
func (h *EmployeeHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, log, err, "delete employee")
	}

	if sess, err := session.FromContext(c); err == nil && sess.Employee != nil && sess.Employee.ID == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "employees cannot delete themselves"})
	}

	if err := h.employees.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, log, err, "delete employee")
	}

	prometheus.RecordEmployeeOperation("delete")
	log.Info("Employee deleted", zap.Uint("employee_id", id))
	return c.NoContent(http.StatusNoContent)
}
