package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lapanclass-api/internal/handler"
	"github.com/noah-isme/lapanclass-api/internal/middleware"
	"github.com/noah-isme/lapanclass-api/internal/models"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Classes    *handler.ClassHandler
	Students   *handler.StudentHandler
	Subjects   *handler.SubjectHandler
	Schedules  *handler.ScheduleHandler
	Calendar   *handler.CalendarHandler
	Semesters  *handler.SemesterHandler
	Attendance *handler.AttendanceHandler
	Leave      *handler.LeaveHandler
	Export     *handler.ExportHandler
	Cash       *handler.CashHandler
	Files      *handler.FileHandler
	Metrics    *handler.MetricsHandler
}

// Dependencies are the cross-cutting collaborators of the route table.
type Dependencies struct {
	Tokens   middleware.TokenValidator
	Audits   middleware.AuditRecorder
	Observer middleware.RequestObserver
	Logger   *zap.Logger
}

// Register mounts the API on r.
func Register(r *gin.Engine, h Handlers, deps Dependencies) {
	if deps.Observer != nil {
		r.Use(middleware.Metrics(deps.Observer))
	}
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)
	if h.Files != nil {
		r.GET("/files/:token", h.Files.Download)
	}

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireStaff()
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audits, deps.Logger, action, resource)
	}

	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/change-password", h.Auth.ChangePassword)

	users := secured.Group("/users", admin)
	users.GET("", h.Users.List)
	users.GET("/pending", h.Users.Pending)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create)
	users.POST("/:id/approve", h.Users.Approve)
	users.POST("/:id/reject", h.Users.Reject)

	secured.GET("/classes", h.Classes.List)
	secured.GET("/classes/:id", h.Classes.Get)
	secured.POST("/classes", admin, audit(models.AuditActionCreate, "classes"), h.Classes.Create)
	secured.PUT("/classes/:id", admin, audit(models.AuditActionUpdate, "classes"), h.Classes.Update)
	secured.DELETE("/classes/:id", admin, audit(models.AuditActionDelete, "classes"), h.Classes.Delete)
	secured.GET("/classes/:id/students", h.Students.Roster)
	secured.GET("/classes/:id/subjects", h.Subjects.List)
	secured.GET("/classes/:id/schedules", h.Schedules.List)
	secured.GET("/classes/:id/attendance/grid", h.Attendance.Grid)
	secured.GET("/classes/:id/attendance/summary", h.Attendance.Summary)
	secured.GET("/classes/:id/attendance/export", staff, h.Export.AttendanceRecap)
	secured.GET("/classes/:id/cash", h.Cash.List)
	secured.GET("/classes/:id/cash/balance", h.Cash.Balance)

	secured.GET("/students", staff, h.Students.List)
	secured.GET("/students/:id", h.Students.Get)
	secured.POST("/students", staff, h.Students.Create)
	secured.PUT("/students/:id", staff, h.Students.Update)
	secured.DELETE("/students/:id", staff, audit(models.AuditActionDelete, "students"), h.Students.Delete)

	secured.POST("/subjects", staff, h.Subjects.Create)
	secured.PUT("/subjects/:id", staff, h.Subjects.Update)
	secured.DELETE("/subjects/:id", staff, h.Subjects.Delete)

	secured.POST("/schedules", staff, h.Schedules.Create)
	secured.PUT("/schedules/:id", staff, h.Schedules.Update)
	secured.DELETE("/schedules/:id", staff, h.Schedules.Delete)

	secured.GET("/holidays", h.Calendar.ListHolidays)
	secured.POST("/holidays", admin, audit(models.AuditActionCreate, "holidays"), h.Calendar.CreateHoliday)
	secured.PUT("/holidays/:id", admin, audit(models.AuditActionUpdate, "holidays"), h.Calendar.UpdateHoliday)
	secured.DELETE("/holidays/:id", admin, audit(models.AuditActionDelete, "holidays"), h.Calendar.DeleteHoliday)
	secured.GET("/calendar/day", h.Calendar.Day)
	secured.GET("/calendar/month", h.Calendar.Month)
	secured.GET("/calendar/periods", h.Calendar.Periods)

	secured.GET("/semesters", h.Semesters.List)
	secured.GET("/semesters/current", h.Semesters.Current)
	secured.POST("/semesters", admin, audit(models.AuditActionCreate, "semester_configs"), h.Semesters.Create)
	secured.PUT("/semesters/:id", admin, audit(models.AuditActionUpdate, "semester_configs"), h.Semesters.Update)
	secured.DELETE("/semesters/:id", admin, audit(models.AuditActionDelete, "semester_configs"), h.Semesters.Delete)

	secured.GET("/attendance", h.Attendance.List)
	secured.PUT("/attendance", staff, h.Attendance.SetStatus)
	secured.POST("/attendance/mark-all-present", staff, h.Attendance.MarkAllPresent)

	secured.POST("/leave", middleware.RequireRoles(models.RoleStudent), h.Leave.Submit)
	secured.POST("/leave/partial", staff, h.Leave.Partial)
	secured.GET("/leave/pending", staff, h.Leave.Pending)
	secured.POST("/leave/:id/approve", staff, h.Leave.Approve)
	secured.POST("/leave/:id/reject", staff, h.Leave.Reject)

	secured.POST("/cash", staff, h.Cash.Record)
	secured.DELETE("/cash/:id", staff, audit(models.AuditActionDelete, "cash_transactions"), h.Cash.Delete)

	secured.GET("/admin/metrics", admin, h.Metrics.Snapshot)
}
