package cmd

import (
	_ "tomcat-devloop/cmd/build"
	_ "tomcat-devloop/cmd/metrics"
	_ "tomcat-devloop/cmd/output"
	_ "tomcat-devloop/cmd/resources"
	_ "tomcat-devloop/cmd/root"
	_ "tomcat-devloop/cmd/serve"
	_ "tomcat-devloop/cmd/server"
	_ "tomcat-devloop/cmd/settings"
)
