// Package chat implements the platform REST client behind the notification
// and directory interfaces. It maps HTTP failures onto classified delivery
// errors so the enforcer can apply its retry policy uniformly.
package chat
