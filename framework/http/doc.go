// Package http provides Laravel-style request and response helpers and the
// container inspector.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	deep := req.QueryBool("resolve")  // ?resolve, ?resolve=1, ?resolve=true
//	id   := req.RouteParam("id")      // chi route params
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.JSON(200, data)           // raw JSON with status
//	res.Success(data)             // 200 {"data": ...}
//	res.Error(400, "bad input")   // {"message": "bad input"}
//	res.ContainerError(err)       // 404 when the requested name is missing, 500 otherwise

//
// # Inspector
//
//	gohttp.NewInspector(c).Register(router)
//
//	GET /_container/services
//	GET /_container/services/mailer?resolve
//	GET /_container/tags/reports
//	GET /_container/parameters          secrets redacted
package http
