// Package config loads tenant and service declarations from CUE files.
//
// A config directory holds one CUE package. Each tenant lives under the
// tenant struct:
//
//	tenant: ACME_PRD: {
//		ionapi:   "secrets/acme_prd.ionapi"
//		company:  "100"
//		identity: "lnquery"
//		service: Customer_v1: api: "soap"
//		service: SalesOrders: {
//			api:    "rest"
//			path:   "tdsls.SalesOrders"
//			entity: "Orders"
//			expand: ["Lines"]
//		}
//	}
//
// Relative ionapi paths are resolved against the config directory.
package config
