// Package api provides the authenticated REST client for a ServerDeck agent.
//
// Requests are single attempts with no built-in retry; reconnect behavior
// lives in the stream package. The client tracks agent reachability and
// reports offline/online transitions and credential rejections through
// registered hooks.
package api
