// Delivery Service.
//
// Delivery Coordination Microservice.
//
//     Schemes: http
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//
// swagger:meta
package main
