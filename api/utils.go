package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

const maxBodyBytes = 1 << 20

func parseID(params httprouter.Params, name string) (int64, error) {
	id, err := strconv.ParseInt(params.ByName(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, makeInvalidResourceError(name)
	}
	return id, nil
}

func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, makeInvalidRequestError(err.Error())
	}
	return raw, nil
}

func decodeJSONBody(r *http.Request, v interface{}) error {
	raw, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return makeInvalidRequestError(err.Error())
	}
	return nil
}
