package response

import "fmt"

// Canned responses with fixed literal bodies. The Content-Length values are
// hardcoded to the exact byte length of each body.

// NotFound builds the canonical plain-text 404 response.
func NotFound() []byte {
	return []byte(
		"HTTP/1.1 404 Not Found\r\n" +
			"Content-Type: text/plain\r\n" +
			"Content-Length: 13\r\n" +
			"Connection: close\r\n" +
			"\r\n" +
			"404 Not Found")
}

// NotFoundJSON builds a 404 response carrying a JSON body.
func NotFoundJSON(body string) []byte {
	header := fmt.Sprintf(
		"HTTP/1.1 404 Not Found\r\n"+
			"Content-Type: application/json\r\n"+
			"Content-Length: %d\r\n"+
			"Cache-Control: no-cache\r\n"+
			"Connection: close\r\n"+
			"\r\n",
		len(body))
	return append([]byte(header), body...)
}

// Unauthorized builds the canonical 401 response.
func Unauthorized() []byte {
	return []byte(
		"HTTP/1.1 401 Unauthorized\r\n" +
			"Content-Type: text/html\r\n" +
			"Content-Length: 16\r\n" +
			"Cache-Control: max-age=86000\r\n" +
			"Connection: close\r\n" +
			"\r\n" +
			"401 Unauthorized")
}

// Redirect builds a 302 response pointing at location. When setCookie is
// true the response carries a Set-Cookie: auth=true header.
func Redirect(location string, setCookie bool) []byte {
	header := "HTTP/1.1 302 Found\r\n" +
		"Location: " + location + "\r\n" +
		"Content-Type: text/html\r\n" +
		"Content-Length: 9\r\n" +
		"Cache-Control: max-age=86000\r\n"
	if setCookie {
		header += "Set-Cookie: auth=true\r\n"
	}
	header += "Connection: close\r\n\r\n"
	return append([]byte(header), "302 Found"...)
}

// InternalServerError builds the canonical 500 response.
func InternalServerError() []byte {
	return []byte(
		"HTTP/1.1 500 Internal Server Error\r\n" +
			"Content-Type: text/html\r\n" +
			"Content-Length: 25\r\n" +
			"Cache-Control: max-age=86000\r\n" +
			"Connection: close\r\n" +
			"\r\n" +
			"500 Internal Server Error")
}

// BadGateway builds the canonical 502 response the proxy returns when a
// backend is unreachable or times out.
func BadGateway() []byte {
	return []byte(
		"HTTP/1.1 502 Bad Gateway\r\n" +
			"Content-Type: text/plain\r\n" +
			"Content-Length: 15\r\n" +
			"Connection: close\r\n" +
			"\r\n" +
			"502 Bad Gateway")
}

// JSONResponse builds a 200 response with an application/json body.
func JSONResponse(body []byte) []byte {
	header := fmt.Sprintf(
		"HTTP/1.1 200 OK\r\n"+
			"Content-Type: application/json\r\n"+
			"Content-Length: %d\r\n"+
			"Cache-Control: no-cache\r\n"+
			"Connection: close\r\n"+
			"\r\n",
		len(body))
	return append([]byte(header), body...)
}
