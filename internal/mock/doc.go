// Package mock serves canned HTTP responses for one stubbed collaborator.
//
// A Server reads every mapping file below its mappings directory and answers
// requests that match one of them. Files may be JSON or YAML and hold either
// one mapping or a list under "mappings":
//
//	request:
//	  method: GET
//	  urlPath: /accounts/42/balance
//	  headers:
//	    Accept:
//	      contains: json
//	response:
//	  status: 200
//	  jsonBody:
//	    balance: 100
//	  headers:
//	    Content-Type: application/json
//
// # Request matching
//
// A request pattern may constrain the method and exactly one of url (path and
// query, exact), urlPath (path, exact), urlPattern (path and query, regular
// expression) or urlPathPattern (path, regular expression). Header and query
// parameter patterns support equalTo, contains, matches and absent.
//
// Mappings are tried by ascending priority (1 is highest, 5 is the default),
// then in file order. A request that matches nothing gets a 404 with a JSON
// body describing the request.
//
// # Responses
//
// A response sets status, headers and one of body or jsonBody. With template
// enabled the body is rendered with text/template and the sprig function
// library over:
//
//	{{ .request.method }} {{ .request.path }} {{ .request.url }}
//	{{ .request.query.id }} {{ .request.headers.Authorization }} {{ .request.body }}
//
// fixedDelayMilliseconds delays the response.
package mock
