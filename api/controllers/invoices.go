package controllers

import (
	"net/http"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/receiving"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

type invoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number" validate:"required,max=50"`
	VendorID      int64                `json:"vendor_id" validate:"required,gt=0"`
	ScannedBy     int64                `json:"scanned_by" validate:"required,gt=0"`
	ImageFilePath *string              `json:"image_file_path" validate:"omitempty,max=255"`
	Items         []invoiceLineRequest `json:"items" validate:"dive"`
}

type invoiceLineRequest struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

type invoiceResponse struct {
	Message string `json:"message"`
	ScanID  int64  `json:"scan_id"`
}

// InvoiceReceive books a scanned vendor invoice into stock.
func InvoiceReceive(svc receiving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receiving service unavailable"))
			return
		}

		var payload invoiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := receiving.InvoiceInput{
			InvoiceNumber: payload.InvoiceNumber,
			VendorID:      payload.VendorID,
			ScannedBy:     payload.ScannedBy,
			ImageFilePath: payload.ImageFilePath,
			Lines:         make([]receiving.LineInput, 0, len(payload.Items)),
		}
		for _, line := range payload.Items {
			input.Lines = append(input.Lines, receiving.LineInput{ItemID: line.ItemID, Quantity: line.Quantity})
		}

		result, err := svc.Receive(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoiceResponse{Message: result.Message, ScanID: result.ScanID})
	}
}

func InvoiceGet(svc receiving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

func InvoiceList(svc receiving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := queryID(r, "vendor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), receiving.ListFilter{ListParams: params, VendorID: vendorID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
