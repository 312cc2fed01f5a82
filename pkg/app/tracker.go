package app

import (
	"net"

	"relayhq/courier/pkg/httpmsg"
	"relayhq/courier/pkg/routes"
)

// registerPeerPool adds a peer to the login assignment pool. Both ip and
// port are required; a duplicate "ip:port" is rejected.
func (a *App) registerPeerPool(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	form := parseForm(body)
	ip, port := form.Get("ip"), form.Get("port")
	if ip == "" || port == "" {
		return routes.Flag(false)
	}

	addr := net.JoinHostPort(ip, port)
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.pool {
		if net.JoinHostPort(p.ip, p.port) == addr {
			a.logger.Warn("duplicate pool registration", "address", addr)
			return routes.Flag(false)
		}
	}
	a.pool = append(a.pool, &poolPeer{ip: ip, port: port})
	a.logger.Info("peer registered in pool", "address", addr)
	return routes.Flag(true)
}

// submitInfo records an active peer's self-description. The submitted
// form is stored as-is and echoed by /get-list.
func (a *App) submitInfo(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	form := parseForm(body)
	if len(form) == 0 {
		return routes.Flag(false)
	}

	info := make(map[string]string, len(form))
	for key := range form {
		info[key] = form.Get(key)
	}
	a.mu.Lock()
	a.active = append(a.active, info)
	a.mu.Unlock()
	return routes.Flag(true)
}

// getList returns every peer recorded via /submit-info.
func (a *App) getList(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := make([]map[string]string, len(a.active))
	copy(list, a.active)
	return routes.JSON(list)
}

// submitUsername records a display name for the requesting client.
func (a *App) submitUsername(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	username := parseForm(body).Get("username")
	if username == "" {
		return routes.Flag(false)
	}
	a.mu.Lock()
	a.usernames = append(a.usernames, username)
	a.mu.Unlock()
	return routes.Flag(true)
}

// login validates the submitted credentials and assigns the first unused
// pool peer to the user. Invalid credentials bounce back to the login
// page with auth=false; an exhausted pool produces no result, which the
// response layer reports as an internal error.
func (a *App) login(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	form := parseForm(body)
	username, password := form.Get("username"), form.Get("password")

	if a.creds == nil {
		a.logger.Error("login attempted without a credential store")
		return routes.NoResult()
	}
	ok, err := a.creds.Valid(username, password)
	if err != nil {
		a.logger.Error("credential lookup failed", "username", username, "error", err)
		return routes.NoResult()
	}
	if !ok {
		a.logger.Info("login rejected", "username", username)
		return routes.Redirect("/login.html", "auth=false")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.pool {
		if p.used {
			continue
		}
		p.used = true
		a.active = append(a.active, map[string]string{
			"ip":       p.ip,
			"port":     p.port,
			"username": username,
		})
		target := "http://" + net.JoinHostPort(p.ip, p.port)
		a.logger.Info("login assigned peer", "username", username, "target", target)
		return routes.Redirect(target, "auth=true")
	}

	a.logger.Error("peer pool exhausted", "username", username)
	return routes.NoResult()
}
