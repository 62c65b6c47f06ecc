package handler

import (
	"net/http"
	"rewards/internal/app/model"
)

type MethodHandler struct {
	methods MethodLister
}

func NewMethodHandler(methods MethodLister) *MethodHandler {
	return &MethodHandler{
		methods: methods,
	}
}

func (h *MethodHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := ReadContextUser(ctx)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	mm, err := h.methods.ListActive(ctx, u.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	out := struct {
		Methods []model.MethodView `json:"methods"`
	}{mm}

	WriteData(w, out, "", http.StatusOK)
}
