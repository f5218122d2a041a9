package main

import "net/http"

// healthCheckHandler reports "degraded" while the message broker connection is down.
// Engagement writes keep working then; only comment notifications stop.
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := "available"
	brokerStatus := "disabled"
	if app.broker != nil {
		brokerStatus = "up"
		if app.broker.IsClosed() {
			status, brokerStatus = "degraded", "down"
		}
	}

	env := envelope{
		"status": status,
		"system_info": map[string]string{
			"environment": app.config.Environment,
			"version":     app.config.Version,
			"broker":      brokerStatus,
		},
	}

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
