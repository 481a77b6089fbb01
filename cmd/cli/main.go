// weblogviz - access log hit rankings
//
// weblogviz parses web server access logs in the combined format and reports
// the most requested URL paths overall and per day.
package main

import (
	"os"

	"github.com/ccollicutt/weblogviz/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
