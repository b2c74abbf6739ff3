// Package plugin holds the registration shims a plugin wires into the host:
// admin menus, scheduled hooks, and shortcodes.
//
// Context
// -------
// Each shim is a plain value built by the bootstrap routine and attached to
// a *hook.Bus with an explicit Register call.  Constructors have no side
// effects; nothing happens until the host fires `admin_menu` or `init`.
//
//	bus := hook.NewBus()
//	plugin.NewAdminMenus(p, menu, views).Register(bus)
//	plugin.NewCrons(p, job, time.Hour, ticker, nil).Register(bus)
//	plugin.NewShortcodes(reg).Define("widget", fn).Register(bus)
//	_ = bus.Fire(ctx, hook.Init)
//
// Notes
// -----
// • Shims may use Record entities through their callbacks but add no
//   persistence of their own.
// • Oxford commas, two spaces after periods.
package plugin

// Plugin identifies the plugin to the host.  Name is a lower-case slug.
type Plugin struct {
	Name    string
	Version string
}

// CronHook is the event name of the plugin's recurring job.
func (p Plugin) CronHook() string { return p.Name + "_cron_hook" }
