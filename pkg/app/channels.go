package app

import (
	"sort"

	"relayhq/courier/pkg/httpmsg"
	"relayhq/courier/pkg/routes"
)

// joinChannel adds a user to a channel, creating the channel on first
// join. Joining again is harmless.
func (a *App) joinChannel(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	form := parseForm(body)
	name, username := form.Get("channel"), form.Get("username")
	if name == "" || username == "" {
		return routes.NoResult()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[name]
	if !ok {
		ch = &channel{}
		a.channels[name] = ch
	}
	for _, member := range ch.members {
		if member == username {
			return routes.JSON(map[string]string{"status": "success", "channel": name})
		}
	}
	ch.members = append(ch.members, username)
	a.logger.Info("channel joined", "channel", name, "username", username)
	return routes.JSON(map[string]string{"status": "success", "channel": name})
}

// getAllChannels lists every channel name.
func (a *App) getAllChannels(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	a.mu.Lock()
	names := make([]string, 0, len(a.channels))
	for name := range a.channels {
		names = append(names, name)
	}
	a.mu.Unlock()
	sort.Strings(names)
	return routes.JSON(names)
}

// getJoinedChannels lists the channels the named user is a member of.
func (a *App) getJoinedChannels(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	username := parseForm(body).Get("username")

	a.mu.Lock()
	names := make([]string, 0, len(a.channels))
	for name, ch := range a.channels {
		for _, member := range ch.members {
			if member == username {
				names = append(names, name)
				break
			}
		}
	}
	a.mu.Unlock()
	sort.Strings(names)
	return routes.JSON(names)
}

// sendChannelMessage appends a message to a channel the sender has
// joined. An unknown channel or a non-member sender produces no result.
func (a *App) sendChannelMessage(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	form := parseForm(body)
	name, username, message := form.Get("channel"), form.Get("username"), form.Get("message")
	if name == "" || username == "" {
		return routes.NoResult()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[name]
	if !ok {
		return routes.NoResult()
	}
	member := false
	for _, m := range ch.members {
		if m == username {
			member = true
			break
		}
	}
	if !member {
		return routes.NoResult()
	}

	entry := map[string]string{
		"channel":  name,
		"username": username,
		"message":  message,
	}
	ch.messages = append(ch.messages, entry)
	return routes.JSON(entry)
}

// getChannelMessages returns a channel's messages in send order. An
// unknown channel reads as empty.
func (a *App) getChannelMessages(headers *httpmsg.HeaderMap, body []byte) routes.Result {
	name := parseForm(body).Get("channel")

	a.mu.Lock()
	defer a.mu.Unlock()
	messages := []map[string]string{}
	if ch, ok := a.channels[name]; ok {
		messages = append(messages, ch.messages...)
	}
	return routes.JSON(messages)
}
