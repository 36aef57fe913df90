package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"nf_gateway/internal/gateway"
	"nf_gateway/internal/providers"
	"nf_gateway/internal/utils"
)

// multipartOverhead is allowed on top of storage.max_upload_bytes for the
// form boundaries and other fields
const multipartOverhead = 1 << 20

// multipartMemory is how much of an upload is held in memory; larger files
// spill to temporary files that are removed when the handler returns.
var multipartMemory int64 = 32 << 20

// ChatInvokeRequest is the body of POST /llm/chat/invoke
type ChatInvokeRequest struct {
	Prompt      string   `json:"prompt"`
	System      string   `json:"system,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// ChatInvokeResponse is the reply of POST /llm/chat/invoke
type ChatInvokeResponse struct {
	Response string `json:"response"`
}

func (d *Dependencies) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatInvokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp := d.Dispatcher.Dispatch(r.Context(), &gateway.ChatRequest{
		Prompt: req.Prompt,
		Options: providers.GenerateOptions{
			System:      req.System,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		},
	})
	if !resp.OK() {
		writeFailure(w, resp.Failure)
		return
	}

	result := resp.Result.(*gateway.ChatResult)
	utils.RespondWithJSON(w, http.StatusOK, ChatInvokeResponse{Response: result.Text})
}

// UploadResponse is the reply of POST /storage/upload
type UploadResponse struct {
	Locator   string `json:"locator"`
	Filename  string `json:"filename"`
	Container string `json:"container"`
}

func (d *Dependencies) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, d.Config.Storage.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	// r is a copy made by the middleware, so the server never sees this form
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	container := r.FormValue("container")
	if container == "" {
		container = d.Config.Storage.DefaultContainer
	}
	// Clients may send a path; only the base name is used as the key
	filename := path.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if filename == "." || filename == "/" {
		filename = ""
	}

	resp := d.Dispatcher.Dispatch(r.Context(), &gateway.UploadRequest{
		Container: container,
		Filename:  filename,
		Data:      data,
	})
	if !resp.OK() {
		writeFailure(w, resp.Failure)
		return
	}

	result := resp.Result.(*gateway.UploadResult)
	utils.RespondWithJSON(w, http.StatusOK, UploadResponse{
		Locator:   result.Locator,
		Filename:  result.Key,
		Container: result.Container,
	})
}

// SignURLRequest is the body of POST /storage/sign
type SignURLRequest struct {
	Container  string `json:"container"`
	Key        string `json:"key"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty"`
}

// SignURLResponse is the reply of POST /storage/sign
type SignURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

func (d *Dependencies) handleSign(w http.ResponseWriter, r *http.Request) {
	var req SignURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TTLSeconds > int64(gateway.MaxSignTTL/time.Second) {
		utils.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("ttl_seconds must not exceed %d", int64(gateway.MaxSignTTL/time.Second)))
		return
	}

	// Zero or negative takes the configured default
	var ttl time.Duration
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	resp := d.Dispatcher.Dispatch(r.Context(), &gateway.SignRequest{
		Container: req.Container,
		Key:       req.Key,
		TTL:       ttl,
	})
	if !resp.OK() {
		writeFailure(w, resp.Failure)
		return
	}

	result := resp.Result.(*gateway.SignResult)
	utils.RespondWithJSON(w, http.StatusOK, SignURLResponse{
		URL:       result.URL,
		ExpiresIn: int64(result.ExpiresIn / time.Second),
	})
}

func (d *Dependencies) handleRecord(w http.ResponseWriter, r *http.Request) {
	resp := d.Dispatcher.Dispatch(r.Context(), &gateway.LookupRequest{Key: r.PathValue("key")})
	if !resp.OK() {
		writeFailure(w, resp.Failure)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp.Result.(*gateway.LookupResult).Record)
}
