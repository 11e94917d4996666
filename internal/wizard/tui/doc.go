// Package tui implements the full-screen terminal interface of BootMaster.
//
// The TUI drives a single workspace.Workspace and holds no simulation logic
// of its own. Built using the Bubble Tea framework, it follows the Elm
// architecture: the workspace is the source of truth and every screen
// re-reads its state when the workspace reports a change.
//
// # Architecture
//
// The application has four screens, switched with tab / shift+tab:
//   - Creator: pick a drive, an ISO image and the partition settings, then
//     run the simulated provisioning with a live progress bar
//   - Advisor: chat with the installation assistant
//   - Guide: the four preparation cards
//   - Portable: nativefier commands, the simulated launcher download and a
//     browser for consoles advertised over mDNS
//
// A sidebar shows the simulated system status (TPM 2.0, Secure Boot) and
// the busy badge while a run is active. Options.Compact hides it.
//
// All screens are wrapped by RenderApplicationContainer for a consistent
// header, content area and context-sensitive footer.
//
// # Framework Components
//
//   - bubbles/list: target drives and discovered consoles
//   - bubbles/textinput: image path and chat input
//   - bubbles/viewport: scrolling transcript
//   - bubbles/spinner: rescans, pending replies and network browsing
//   - bubbles/progress: provisioning progress
//   - bubbles/help + bubbles/key: context-aware help
//   - lipgloss: styling and layout
//   - atotto/clipboard: copying the nativefier command
//
// # Workspace Events
//
// NewAppModel registers a watcher on the workspace. Notifications are
// coalesced into a one-slot channel and delivered to the program as a
// message, so a burst of progress ticks causes at most one pending redraw.
//
// # Usage Example
//
//	ws, err := workspace.New(workspace.Options{Config: cfg})
//	if err != nil {
//	    return err
//	}
//	defer ws.Close()
//
//	if err := tui.Run(ctx, ws, tui.Options{}); err != nil {
//	    return err
//	}
//
// # Logging
//
// stdout belongs to Bubble Tea, so logs go to a file (see --log-file).
package tui
