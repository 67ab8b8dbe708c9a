// Package restcountries provides an HTTP client for the REST Countries v3.1 API.
//
// # Endpoints
//
//   - GET /all?fields=...      FetchAll (projection in ListFields)
//   - GET /alpha/{code}        FetchByCode (cached per client)
//   - GET /alpha?codes=a,b     FetchByCodes (border lookups)
//   - GET /name/{name}         SearchByName
//   - GET /region/{region}     FetchByRegion
//
// Requests share a token-bucket limiter and a 10 second timeout. A 404, or an
// empty result for a single-code lookup, is reported as ErrNotFound; other
// failures are wrapped with the request path.
//
// The Country helpers (NativeCommonName, CurrencyNames, LanguageNames) order
// map-valued fields by key so rendering is stable across runs.
package restcountries
