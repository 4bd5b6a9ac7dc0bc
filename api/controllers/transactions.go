package controllers

import (
	"net/http"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

type checkoutRequest struct {
	EmployeeID    int64                 `json:"employee_id" validate:"required,gt=0"`
	DepartmentID  int64                 `json:"department_id" validate:"required,gt=0"`
	CheckoutItems []checkoutLineRequest `json:"checkout_items" validate:"dive"`
}

type checkoutLineRequest struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

type checkoutResponse struct {
	Message     string `json:"message"`
	Transaction int64  `json:"transaction"`
}

// TransactionCreate withdraws stock for an employee and returns the new transaction id.
func TransactionCreate(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkout.CheckoutInput{
			EmployeeID:   payload.EmployeeID,
			DepartmentID: payload.DepartmentID,
			Lines:        make([]checkout.LineInput, 0, len(payload.CheckoutItems)),
		}
		for _, line := range payload.CheckoutItems {
			input.Lines = append(input.Lines, checkout.LineInput{ItemID: line.ItemID, Quantity: line.Quantity})
		}

		result, err := svc.Process(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Message:     result.Message,
			Transaction: result.TransactionID,
		})
	}
}

func TransactionGet(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

func TransactionList(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		employeeID, err := queryID(r, "employee_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		departmentID, err := queryID(r, "department_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, err := svc.List(r.Context(), checkout.ListFilter{
			ListParams:   params,
			EmployeeID:   employeeID,
			DepartmentID: departmentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txns)
	}
}
