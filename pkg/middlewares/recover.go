/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

package middlewares

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/medifleet/delivery-service/pkg/web"
)

// Recover middleware catches panics from downstream handlers so a single bad
// request cannot take the process down.
func Recover(next web.Handler) web.Handler {
	return web.Handler(func(ctx context.Context, writer http.ResponseWriter, request *http.Request) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				tracerID := ctx.Value(web.KeyValues).(*web.ContextValues).TraceID
				log.WithFields(log.Fields{
					"Method":     request.Method,
					"RequestURI": request.RequestURI,
					"TraceID":    tracerID,
					"Panic":      recovered,
					"Stack":      string(debug.Stack()),
				}).Error("Recovered from panic")

				web.RespondError(ctx, writer, errors.New("an error has occurred. Try again"), http.StatusInternalServerError)
			}
		}()

		err = next(ctx, writer, request)
		return err
	})
}
