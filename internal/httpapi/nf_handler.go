package httpapi

import (
	"fmt"
	"net/http"

	"nf_gateway/internal/utils"
)

// NFRequest carries one invoice document (XML, JSON or text)
type NFRequest struct {
	Content string `json:"content"`
}

// BatchNFRequest carries several invoice documents
type BatchNFRequest struct {
	NFRequests []NFRequest `json:"nf_requests"`
}

// NFResponse is the reply of POST /nf
type NFResponse struct {
	Message string `json:"message"`
	Data    string `json:"data"`
}

// BatchItemResult is one entry of a batch reply
type BatchItemResult struct {
	Message     string `json:"message"`
	DataPreview string `json:"data_preview"`
}

// BatchNFResponse is the reply of POST /batch
type BatchNFResponse struct {
	Message string            `json:"message"`
	Results []BatchItemResult `json:"results"`
}

// SefazCode is one SEFAZ status code
type SefazCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

var sefazCodes = []SefazCode{
	{Code: "100", Description: "Autorizado o uso da NF-e"},
	{Code: "204", Description: "Duplicidade de NF-e"},
}

// preview returns the first n characters of s followed by "..."
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}

func (d *Dependencies) handleNF(w http.ResponseWriter, r *http.Request) {
	var req NFRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, NFResponse{
		Message: "NF recebida com sucesso",
		Data:    preview(req.Content, 50),
	})
}

func (d *Dependencies) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchNFRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	results := make([]BatchItemResult, 0, len(req.NFRequests))
	for _, nf := range req.NFRequests {
		results = append(results, BatchItemResult{
			Message:     "NF do lote recebida",
			DataPreview: preview(nf.Content, 30),
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, BatchNFResponse{
		Message: fmt.Sprintf("%d NFs processadas no lote", len(results)),
		Results: results,
	})
}

func (d *Dependencies) handleSefazCodes(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, sefazCodes)
}
