package handler

import "github.com/labstack/echo/v4"

// fail writes the standard failure envelope: success:false plus a
// human-readable message.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

// failFields is fail with per-field error tags, used by validation and
// conflict responses so clients can highlight the offending input.
func failFields(c echo.Context, status int, message string, fields map[string]string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message, "errors": fields})
}

// failStorage reports a storage-layer failure. The underlying error detail
// is echoed only in development mode; production clients get the generic
// message and nothing else.
func failStorage(c echo.Context, status int, message string, dev bool, err error) error {
	body := echo.Map{"success": false, "message": message}
	if dev && err != nil {
		body["detail"] = err.Error()
	}
	return c.JSON(status, body)
}
