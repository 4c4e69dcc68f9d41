package main

import _ "embed"

// indexHTML is the embedded viewer page template.
//go:embed web/index.html
var indexHTML string

// styleCSS is the embedded CSS stylesheet.
//go:embed web/style.css
var styleCSS string

// appJS is the embedded JavaScript viewer code.
//go:embed web/app.js
var appJS string
