package dispatch

// HelpText is the response to the built-in help command.
const HelpText = `Natural Language Console Help

Query examples:
  - How many hours did alice spend on photoshop?
  - Show me all usage from bob
  - What was the longest session in seconds?
  - List all users on the windows platform
  - What legacy apps were used?

Built-in commands:
  - help: show this help message
  - clear: clear the console

Features:
  - Browse past queries in the history panel (tab to focus)
  - Toggle between light and dark themes (ctrl+t)
  - Export a result as PNG, CSV or JSON (p, c, e in the log panel)
  - Copy or share an answer (y, s in the log panel)
  - Star queries to keep them as favorites (f in the history panel)`
