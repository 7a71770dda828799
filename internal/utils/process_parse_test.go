package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tomcat-devloop/internal/models"
)

var testPatterns = []string{"catalina", "tomcat", "Bootstrap"}

func TestHasPort(t *testing.T) {
	assert.True(t, hasPort("tcp 0 0 0.0.0.0:8000 0.0.0.0:* LISTEN 1/java", "8000"))
	assert.True(t, hasPort("TCP    0.0.0.0:8000", "8000"))
	assert.False(t, hasPort("tcp 0 0 0.0.0.0:80001 0.0.0.0:* LISTEN 1/java", "8000"))
	assert.True(t, hasPort("127.0.0.1:80001 127.0.0.1:8000 ESTABLISHED", "8000"))
	assert.False(t, hasPort("tcp 0 0 0.0.0.0:18000", "8000x"))
}

/**
 * Test netstat -tlnp parsing
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Only lines owned by a java process and matching the port are returned
 */
func TestParseNetstatPosix(t *testing.T) {
	out := `Active Internet connections (only servers)
Proto Recv-Q Send-Q Local Address           Foreign Address         State       PID/Program name
tcp        0      0 0.0.0.0:8000            0.0.0.0:*               LISTEN      4242/java
tcp        0      0 0.0.0.0:80001           0.0.0.0:*               LISTEN      4343/java
tcp6       0      0 :::8000                 :::*                    LISTEN      4444/node
tcp6       0      0 :::8000                 :::*                    LISTEN      4545/java
`
	found := ParseNetstatPosix(out, "8000")
	if assert.Len(t, found, 2) {
		assert.Equal(t, "4242", found[0].PID)
		assert.Equal(t, "4545", found[1].PID)
	}
	assert.Empty(t, ParseNetstatPosix("", "8000"))
}

func TestParseNetstatWindows(t *testing.T) {
	out := "  Proto  Local Address          Foreign Address        State           PID\r\n" +
		"  TCP    0.0.0.0:8000           0.0.0.0:0              LISTENING       5120\r\n" +
		"  TCP    0.0.0.0:8000           0.0.0.0:0              LISTENING       0\r\n" +
		"  TCP    [::]:8000              [::]:0                 LISTENING       5121\r\n"
	found := ParseNetstatWindows(out, "8000")
	if assert.Len(t, found, 2) {
		assert.Equal(t, "5120", found[0].PID)
		assert.Equal(t, "5121", found[1].PID)
	}
}

/**
 * Test ps aux parsing
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - grep lines and the own pid are excluded
 * - non-java processes are excluded even when they match a pattern
 */
func TestParsePsAux(t *testing.T) {
	out := `USER       PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND
dev       4242  5.0 10.0 100000 2000 ?        Sl   10:00   0:30 /usr/lib/jvm/bin/java -Dcatalina.home=/opt/tomcat org.apache.catalina.startup.Bootstrap start
dev       4343  0.0  0.0   1000  100 pts/0    S+   10:01   0:00 grep java catalina
dev       4444  0.0  0.1   1000  100 pts/0    S    10:01   0:00 /bin/bash /opt/tomcat/bin/catalina.sh jpda run
dev       4545  1.0  5.0 100000 2000 ?        Sl   10:02   0:10 java -jar app.jar
dev       4646  1.0  5.0 100000 2000 ?        Sl   10:02   0:10 java -Dcatalina.base=/opt/tomcat Bootstrap
`
	found := ParsePsAux(out, testPatterns, "4646")
	assert.Equal(t, []models.DiscoveredProcess{{
		PID:   "4242",
		Label: "/usr/lib/jvm/bin/java -Dcatalina.home=/opt/tomcat org.apache.catalina.startup.Bootstrap start",
	}}, found)
}

func TestParseWmicCSV(t *testing.T) {
	out := "\r\nNode,CommandLine,ProcessId\r\n" +
		"HOST,\"C:\\jdk\\bin\\java.exe\" -Dcatalina.home=C:\\tomcat,x org.apache.catalina.startup.Bootstrap start,6100\r\n" +
		"HOST,\"C:\\jdk\\bin\\java.exe\" -jar app.jar,6200\r\n" +
		"HOST,\"C:\\jdk\\bin\\java.exe\" Bootstrap,6300\r\n"
	found := ParseWmicCSV(out, testPatterns, "6300")
	if assert.Len(t, found, 1) {
		assert.Equal(t, "6100", found[0].PID)
		assert.Contains(t, found[0].Label, "catalina.home=C:\\tomcat,x")
	}
}

// The tool's own daemons and CLIs mention tomcat through the binary name.
func TestParsePsAuxSkipsOwnExecutable(t *testing.T) {
	out := `USER       PID %CPU %MEM    VSZ   RSS TTY      STAT START   TIME COMMAND
dev       4242  0.1  0.2  20000 3000 ?        Sl   10:00   0:01 /usr/local/bin/tomcat-devloop --workspace /home/u/java/shop serve
dev       4343  0.0  0.1  20000 3000 pts/1    Sl+  10:01   0:00 tomcat-devloop config set JAVA_HOME /usr/lib/jvm/java-17
dev       4444  5.0 10.0 100000 2000 ?        Sl   10:02   0:30 /usr/lib/jvm/java-17/bin/java -Dcatalina.base=/opt/tomcat org.apache.catalina.startup.Bootstrap start
`
	found := ParsePsAux(out, testPatterns, "1")
	if assert.Len(t, found, 1) {
		assert.Equal(t, "4444", found[0].PID)
	}
}

func TestIsSelfCommand(t *testing.T) {
	assert.True(t, isSelfCommand("/usr/local/bin/tomcat-devloop serve"))
	assert.True(t, isSelfCommand(`"C:\tools\tomcat-devloop.exe" --workspace C:\java\shop serve`))
	assert.True(t, isSelfCommand(`C:\tools\Tomcat-Devloop.EXE serve`))
	assert.False(t, isSelfCommand("/usr/bin/java -Dtomcat-devloop=1 Bootstrap"))
	assert.False(t, isSelfCommand(""))

	out := "Node,CommandLine,ProcessId\r\n" +
		"HOST,\"C:\\tools\\tomcat-devloop.exe\" --workspace C:\\java\\shop serve,7100\r\n"
	assert.Empty(t, ParseWmicCSV(out, testPatterns, "1"))
}
