package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-rules/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type GroupHandler interface {
	// Attendance Group
	ListGroups(w http.ResponseWriter, r *http.Request)
	CreateGroup(w http.ResponseWriter, r *http.Request)
	GetGroup(w http.ResponseWriter, r *http.Request)
	UpdateGroup(w http.ResponseWriter, r *http.Request)
	DeactivateGroup(w http.ResponseWriter, r *http.Request)
	Statistics(w http.ResponseWriter, r *http.Request)

	// Work Shift
	ListShifts(w http.ResponseWriter, r *http.Request)
	CreateShift(w http.ResponseWriter, r *http.Request)
	UpdateShift(w http.ResponseWriter, r *http.Request)
	DeactivateShift(w http.ResponseWriter, r *http.Request)

	// Membership
	AssignMember(w http.ResponseWriter, r *http.Request)
	RemoveMember(w http.ResponseWriter, r *http.Request)
	EmployeeGroup(w http.ResponseWriter, r *http.Request)
}

type groupHandlerImpl struct {
	ruleService group.RuleService
}

func NewGroupHandler(ruleService group.RuleService) GroupHandler {
	return &groupHandlerImpl{
		ruleService: ruleService,
	}
}

// ==================== ATTENDANCE GROUP HANDLERS ====================

func (h *groupHandlerImpl) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.ruleService.ListActiveGroups(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result := make([]group.GroupResponse, 0, len(groups))
	for _, g := range groups {
		result = append(result, group.NewGroupResponse(g))
	}
	response.Success(w, result)
}

func (h *groupHandlerImpl) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req group.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.ruleService.CreateGroup(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance group created successfully", group.NewGroupResponse(result))
}

func (h *groupHandlerImpl) GetGroup(w http.ResponseWriter, r *http.Request) {
	result, err := h.ruleService.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, group.NewGroupResponse(result))
}

func (h *groupHandlerImpl) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req group.UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.HandleError(w, err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.ruleService.UpdateGroup(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance group updated successfully", group.NewGroupResponse(result))
}

func (h *groupHandlerImpl) DeactivateGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.ruleService.DeactivateGroup(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance group deactivated successfully", nil)
}

func (h *groupHandlerImpl) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ruleService.GroupStatistics(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, stats)
}

// ==================== WORK SHIFT HANDLERS ====================

func (h *groupHandlerImpl) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.ruleService.ListGroupShifts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result := make([]group.ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		result = append(result, group.NewShiftResponse(s))
	}
	response.Success(w, result)
}

func (h *groupHandlerImpl) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req group.CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.HandleError(w, err)
		return
	}
	req.GroupID = chi.URLParam(r, "id")

	result, err := h.ruleService.CreateShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Work shift created successfully", group.NewShiftResponse(result))
}

func (h *groupHandlerImpl) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req group.UpdateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.HandleError(w, err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.ruleService.UpdateShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Work shift updated successfully", group.NewShiftResponse(result))
}

func (h *groupHandlerImpl) DeactivateShift(w http.ResponseWriter, r *http.Request) {
	if err := h.ruleService.DeactivateShift(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Work shift deactivated successfully", nil)
}

// ==================== MEMBERSHIP HANDLERS ====================

type membershipResponse struct {
	EmployeeID string `json:"employee_id"`
	GroupID    string `json:"group_id"`
	Changed    bool   `json:"changed"`
}

func (h *groupHandlerImpl) AssignMember(w http.ResponseWriter, r *http.Request) {
	var req group.AssignMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.HandleError(w, err)
		return
	}
	req.GroupID = chi.URLParam(r, "id")

	changed, err := h.ruleService.AssignEmployeeToGroup(r.Context(), req.EmployeeID, req.GroupID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee assigned to attendance group", membershipResponse{
		EmployeeID: req.EmployeeID,
		GroupID:    req.GroupID,
		Changed:    changed,
	})
}

func (h *groupHandlerImpl) RemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	employeeID := chi.URLParam(r, "employeeID")

	changed, err := h.ruleService.RemoveEmployeeFromGroup(r.Context(), employeeID, groupID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee removed from attendance group", membershipResponse{
		EmployeeID: employeeID,
		GroupID:    groupID,
		Changed:    changed,
	})
}

func (h *groupHandlerImpl) EmployeeGroup(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if self, _ := middleware.EmployeeID(r.Context()); employeeID != self && !middleware.CanManageAttendance(r.Context()) {
		response.HandleError(w, jwt.ErrManagerAccessRequired)
		return
	}

	g, err := h.ruleService.EmployeeGroup(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if g == nil {
		response.HandleError(w, group.ErrNoAttendanceGroup)
		return
	}

	shifts, err := h.ruleService.ListGroupShifts(r.Context(), g.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	active := make([]group.ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		if s.IsActive {
			active = append(active, group.NewShiftResponse(s))
		}
	}
	response.Success(w, employeeGroupResponse{
		Group:  group.NewGroupResponse(*g),
		Shifts: active,
	})
}

type employeeGroupResponse struct {
	Group  group.GroupResponse   `json:"group"`
	Shifts []group.ShiftResponse `json:"shifts"`
}
