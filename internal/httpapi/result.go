package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// ErrorResponse is the JSON body written for any non-2xx result.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// result is an endpoint's outcome: an HTTP status, the object to marshal as
// its JSON body, and an internal-only message logged alongside the request,
// mirroring the teacher's EndpointResult/result.Result split between what the
// client sees and what the operator sees.
type result struct {
	status      int
	internalMsg string
	resp        interface{}
	isErr       bool
}

func ok(respObj interface{}, internalMsg string, args ...interface{}) result {
	return result{status: http.StatusOK, resp: respObj, internalMsg: fmt.Sprintf(internalMsg, args...)}
}

func created(respObj interface{}, internalMsg string, args ...interface{}) result {
	return result{status: http.StatusCreated, resp: respObj, internalMsg: fmt.Sprintf(internalMsg, args...)}
}

func noContent(internalMsg string, args ...interface{}) result {
	return result{status: http.StatusNoContent, internalMsg: fmt.Sprintf(internalMsg, args...)}
}

func errResult(status int, userMsg, internalMsg string, args ...interface{}) result {
	return result{
		status:      status,
		isErr:       true,
		internalMsg: fmt.Sprintf(internalMsg, args...),
		resp:        ErrorResponse{Error: userMsg, Status: status},
	}
}

func badRequest(userMsg string, internalMsg string, args ...interface{}) result {
	return errResult(http.StatusBadRequest, userMsg, internalMsg, args...)
}

func notFound(internalMsg string, args ...interface{}) result {
	return errResult(http.StatusNotFound, "the requested resource was not found", internalMsg, args...)
}

func unauthorized(internalMsg string, args ...interface{}) result {
	return errResult(http.StatusUnauthorized, "missing or invalid credentials", internalMsg, args...)
}

func conflict(userMsg string, internalMsg string, args ...interface{}) result {
	return errResult(http.StatusConflict, userMsg, internalMsg, args...)
}

func internalError(internalMsg string, args ...interface{}) result {
	return errResult(http.StatusInternalServerError, "an internal server error occurred", internalMsg, args...)
}

// endpointFunc is the handler shape every marsha HTTP endpoint is written
// against: a pure function from request to result, with all status-code,
// logging and JSON-marshaling boilerplate factored into wrap.
type endpointFunc func(req *http.Request) result

func wrap(ep endpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer recoverTo500(w, req)
		r := ep(req)
		r.write(w, req)
	}
}

func recoverTo500(w http.ResponseWriter, req *http.Request) {
	if p := recover(); p != nil {
		internalError("panic: %v", p).write(w, req)
	}
}

func (r result) write(w http.ResponseWriter, req *http.Request) {
	if r.status == 0 {
		log.Printf("ERROR %s %s: endpoint result was never populated", req.Method, req.URL.Path)
		http.Error(w, "an internal server error occurred", http.StatusInternalServerError)
		return
	}

	level := "INFO "
	if r.isErr {
		level = "ERROR"
	}
	log.Printf("%s %s %s: HTTP-%d %s", level, req.Method, req.URL.Path, r.status, r.internalMsg)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(r.status)
	if r.status == http.StatusNoContent || r.resp == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(r.resp); err != nil {
		log.Printf("ERROR %s %s: could not marshal JSON response: %v", req.Method, req.URL.Path, err)
	}
}
