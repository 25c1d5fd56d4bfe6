package signature

import "strings"

// entry is the uncompiled form of a Signature.
type entry struct {
	name        string
	pattern     string
	explanation string
	positive    []string
	negative    []string
}

// xssPattern is the union of the XSS expressions; the library compiles it as
// a single alternation.
var xssPattern = strings.Join([]string{
	`<\s*script[^>]*?>.*?<\s*/\s*script\s*>`,
	`<\s*img[^>]+onerror\s*=.*?>`,
	`<\s*svg[^>]*on(?:load|error)\s*=`,
	`<\s*iframe\b.*?>`,
	`<\s*body\b[^>]*onload\s*=`,
	`javascript\s*:`,
	`<\s*\w+\s+on\w+\s*=`,
	`<\s*s\s*c\s*r\s*i\s*p\s*t[^>]*>`,
	`&#x3c;\s*script\s*&#x3e;`,
	`<scr(?:.*?)ipt>`,
	`</scr(?:.*?)ipt>`,
	`<\s*script[^>]*src\s*=.*?>`,
	`expression\s*\(`,
	`vbscript\s*:`,
	`mozbinding\s*:`,
	`javascript:alert\(document\.domain\)`,
	`<script src=['"]http://[^>]*?>`,
}, "|")

// table is the ordered signature set. Order is preserved in reports.
var table = []entry{
	{
		name:        "SQL Error",
		pattern:     `sql\s*exception|sql\s*syntax|warning.*mysql.*|unclosed\s*quotation\s*mark|microsoft\s*ole\s*db\s*provider|odbc\s*sql\s*server\s*driver|pg_query\(`,
		explanation: "Server returned DB error messages.",
		positive:    []string{"syntax error near 'FROM'", "ODBC SQL server driver failed", "error in your SQL syntax"},
		negative:    []string{"normal query", "sql logging enabled"},
	},
	{
		name:        SQLInjection,
		pattern:     `\bunion\s+select\s|\bselect\s+\*\s+from\s|\bsleep\(|'or\s+1=1\b|'or\s+'a'='a\b|--|#|xp_cmdshell|information_schema`,
		explanation: "Likely injection in SQL queries.",
		positive: []string{
			"UNION SELECT pass FROM users", "' OR '1'='1", "xp_cmdshell",
			"UNION SELECT username, password FROM users", "' OR 'a'='a",
			"SELECT * FROM table WHERE id='", "' DROP TABLE users --", "OR 1=1 LIMIT 1",
		},
		negative: []string{
			"SELECT id, name FROM product", "UPDATE user set pass=?",
			"SELECT id, name FROM products", "INSERT INTO users VALUES ('test','pass')",
			"UPDATE accounts SET balance=500 WHERE userid=1", "CREATE TABLE logs (entry TEXT)",
		},
	},
	{
		name:        XSS,
		pattern:     xssPattern,
		explanation: "Injected client-side scripts.",
		positive: []string{
			"<script>alert('X')</script>", "<img src=x onerror=alert(1)>", "<svg onload=alert('svgxss')>",
			"<script>alert('Hacked!')</script>", "javascript:alert('XSS')", "onerror=alert(document.cookie)",
			"<script src='http://evil.com/x.js'></script>",
		},
		negative: []string{
			"function hello(){}", "var cleanVar=5;",
			"function greetUser(name) {}", "var x=5; if(x>2){x++;}",
			"document.getElementById('x').innerText='Safe';", "function normalFunc(){}",
		},
	},
	{
		name:        "Directory Listing",
		pattern:     `<title>\s*index of\s*/\s*</title>|directory\s+listing\s+for`,
		explanation: "Exposed directory contents.",
		positive:    []string{"<title>Index of /</title>"},
		negative:    []string{"normal html"},
	},
	{
		name:        "File Inclusion",
		pattern:     `(?:include|require)(?:_once)?\s*\(.*?http://`,
		explanation: "Local/remote file inclusion.",
		positive:    []string{"require(http://evil.com)", "include(http://hack.site)"},
		negative:    []string{"normal require", "safe block"},
	},
	{
		name:        "Server Error",
		pattern:     `internal\s+server\s+error|500\s+internal|traceback\s*\(most\s+recent\s+call\s+last\)`,
		explanation: "HTTP 500 or similar response.",
		positive:    []string{"internal server error", "Traceback (most recent call last)"},
		negative:    []string{"ok response"},
	},
	{
		name:        "Shellshock",
		pattern:     `\(\)\s*\{\s*:\s*;\s*\}\s*;`,
		explanation: "Bash vulnerability discovered.",
		positive:    []string{"() { :;}; echo exploit"},
		negative:    []string{"bash script safe"},
	},
	{
		name:        "Remote Code Execution",
		pattern:     `exec\(|system\(|shell_exec\(|/bin/sh|eval\(|\bpython\s+-c\s`,
		explanation: "User input can run code.",
		positive:    []string{"exec(", "shell_exec(", "system("},
		negative:    []string{"safe()"},
	},
	{
		name:        "LFI/RFI",
		pattern:     `etc/passwd|boot\.ini|\\\\?\.\\pipe\\`,
		explanation: "File references for inclusion.",
		positive:    []string{"etc/passwd", "boot.ini", "../../etc/passwd"},
		negative:    []string{"safe file read"},
	},
	{
		name:        "SSRF",
		pattern:     `127\.0\.0\.1|localhost|metadata\.google\.internal`,
		explanation: "Server-Side Request Forgery found.",
		positive:    []string{"127.0.0.1", "localhost", "metadata.google.internal"},
		negative:    []string{"remote api call"},
	},
	{
		name:        "Path Traversal",
		pattern:     `\.\./\.\./|\.\./|\.\.\\`,
		explanation: "Possible directory traversal.",
		positive:    []string{"../etc/passwd"},
		negative:    []string{"safe path usage"},
	},
	{
		name:        "Command Injection",
		pattern:     `\|\||&&|;|/bin/bash|/bin/zsh`,
		explanation: "Shell commands inserted.",
		positive:    []string{"|| ls", "&& whoami", "; uname -a"},
		negative:    []string{"normal usage"},
	},
	{
		name:        "WordPress Leak",
		pattern:     `wp-content|wp-includes|wp-admin`,
		explanation: "WordPress paths or files.",
		positive:    []string{"wp-content", "wp-admin"},
		negative:    []string{"mention WP"},
	},
	{
		name:        "Java Error",
		pattern:     `java\.lang\.|exception\s+in\s+thread\s+"main"`,
		explanation: "Java exceptions or traces.",
		positive:    []string{"java.lang.NullPointerException"},
		negative:    []string{"normal logs"},
	},
	{
		name:        "Open Redirect",
		pattern:     `=\s*https?://`,
		explanation: "Redirects to external URL.",
		positive:    []string{"=http://", "=https://"},
		negative:    []string{"redirect internal"},
	},
	{
		name:        "Deserialization",
		pattern:     `java\.io\.objectinputstream|ysoserial|__proto__|constructor\.prototype`,
		explanation: "Unsafe object deserialization.",
		positive:    []string{"java.io.ObjectInputStream", "__proto__", "ysoserial"},
		negative:    []string{"normal data"},
	},
	{
		name:        "XXE",
		pattern:     `<!doctype\s+[^>]*\[.*<!entity\s+[^>]*system`,
		explanation: "XML External Entity usage.",
		positive:    []string{"<!DOCTYPE foo [<!ENTITY"},
		negative:    []string{"normal xml"},
	},
	{
		name:        "File Upload",
		pattern:     `multipart/form-data.*filename=`,
		explanation: "Multipart form can upload.",
		positive:    []string{"multipart/form-data", "filename="},
		negative:    []string{"safe form"},
	},
	{
		name:        "Prototype Pollution",
		pattern:     `\.__proto__|object\.prototype|object\.setprototypeof`,
		explanation: "JS prototype manipulation.",
		positive:    []string{".__proto__", "Object.setPrototypeOf"},
		negative:    []string{"normal js"},
	},
	{
		name:        "NoSQL Injection",
		pattern:     `db\.\w+\.find\(|\$\w+\{|\{\s*\$where\s*:`,
		explanation: "Mongo-like injection references.",
		positive:    []string{"db.users.find(", "$where"},
		negative:    []string{"normal nosql"},
	},
	{
		name:        "Exposed Git Directory",
		pattern:     `\.git/head|\.gitignore|\.git/config`,
		explanation: "Git config or HEAD visible.",
		positive:    []string{".git/HEAD", ".gitignore", ".git/config"},
		negative:    []string{"repo mention"},
	},
	{
		name:        "Potential Secrets",
		pattern:     `aws_access_key_id|aws_secret_access_key|api_key|private_key|authorization:\s*bearer\s+[0-9a-z\-_.]+`,
		explanation: "API keys or tokens leaked.",
		positive:    []string{"aws_secret_access_key", "api_key", "authorization: bearer 123abc"},
		negative:    []string{"key param masked"},
	},
	{
		name:        "JWT Token Leak",
		pattern:     `eyjh[a-z0-9_-]*\.[a-z0-9_-]+\.[a-z0-9_-]+`,
		explanation: "JWT tokens exposed.",
		positive:    []string{"eyJh.eyJ"},
		negative:    []string{"normal token usage"},
	},
	{
		name:        "ETC Shadow Leak",
		pattern:     `/etc/shadow`,
		explanation: "Reference to /etc/shadow.",
		positive:    []string{"/etc/shadow"},
		negative:    []string{"safe reference"},
	},
	{
		name:        "Possible Password Leak",
		pattern:     `password\s*=\s*\w+`,
		explanation: "Possible credential leakage.",
		positive:    []string{"password=secret"},
		negative:    []string{"pwd=masked"},
	},
	{
		name:        "CC Leak",
		pattern:     `\b(?:\d[ -]*?){13,16}\b`,
		explanation: "Credit card pattern found.",
		positive:    []string{"4111 1111 1111 1111"},
		negative:    []string{"1111"},
	},
	{
		name:        "CRLF Injection",
		pattern:     `\r\n|%0d%0a|%0a%0d`,
		explanation: "New line injection discovered.",
		positive:    []string{"%0d%0a", `\r\n`},
		negative:    []string{"normal line break"},
	},
	{
		name:        "HTTP Request Smuggling",
		pattern:     `content-length:\s*\d+.*\r?\n\s*transfer-encoding:\s*chunked|transfer-encoding:\s*chunked.*\r?\n\s*content-length:\s*\d+`,
		explanation: "Conflicting request headers found.",
		positive:    []string{"transfer-encoding: chunked\r\ncontent-length: 100"},
		negative:    []string{"normal headers"},
	},
	{
		name:        "LDAP Injection",
		pattern:     `\(\w+=\*\)|\|\(\w+=\*\)|\(\w+~=\*`,
		explanation: "Possible directory service injection.",
		positive:    []string{"(cn=*)", "|(objectClass=*)", "(uid=*)"},
		negative:    []string{"(cn=John)", "(&(objectClass=person)(cn=John))"},
	},
	{
		name:        "XPath Injection",
		pattern:     `/[^/]+/|\[[^\]]+\]|text\(\)=`,
		explanation: "Injected XPath queries.",
		positive:    []string{"/users/user", "text()='secret'", "[contains(text(),'test')]"},
		negative:    []string{"normal xml", "legitimate xpath"},
	},
	{
		name:        "Exposed S3 Bucket",
		pattern:     `s3\.amazonaws\.com`,
		explanation: "Cloud storage might be public.",
		positive:    []string{"mybucket.s3.amazonaws.com", "bucket.s3.amazonaws.com"},
		negative:    []string{"normal usage"},
	},
	{
		name:        "Exposed Azure Blob",
		pattern:     `blob\.core\.windows\.net`,
		explanation: "Unsecured Azure blob container.",
		positive:    []string{".blob.core.windows.net"},
		negative:    []string{"safe azure usage"},
	},
	{
		name:        "Exposed K8s Secrets",
		pattern:     `kube[\s_-]*config|k8s[\s_-]*secret|kubeadm[\s_-]*token`,
		explanation: "Kubernetes secrets possibly exposed.",
		positive:    []string{"kubeconfig", "k8s_secret", "kubeadm token"},
		negative:    []string{"kube cluster safe"},
	},
	{
		name:        "npm Token",
		pattern:     `npm[_-]token_[a-z0-9]{36}`,
		explanation: "npm private token possibly leaked.",
		positive:    []string{"npm_token_123456789012345678901234567890123456"},
		negative:    []string{"safe usage"},
	},

	// Raised by dedicated detectors; no passive body pattern.
	{
		name:        MissingSecurityHeaders,
		explanation: "Key headers absent.",
		positive:    []string{"lack of csp, x-frame"},
		negative:    []string{"csp present"},
	},
	{
		name:        OutdatedServer,
		explanation: "Old or insecure server.",
		positive:    []string{"apache/2.2.14", "nginx/1.10.3"},
		negative:    []string{"apache/2.4", "nginx/1.22"},
	},
	{
		name:        InsecureCookie,
		explanation: "Cookie flags missing.",
		positive:    []string{"set-cookie: sessionid=abc123"},
		negative:    []string{"set-cookie: secure; httponly"},
	},
	{
		name:        SuspiciousParamName,
		explanation: "Param name looks malicious.",
		positive:    []string{"cmd", "shell", "token"},
		negative:    []string{"id", "name"},
	},
	{
		name:        SuspiciousParamValue,
		explanation: "Param value looks malicious.",
		positive:    []string{"<script>", "' or 1=1", "%0d%0a"},
		negative:    []string{"normal"},
	},
	{
		name:        FormGETSensitive,
		explanation: "Sensitive data in GET.",
		positive:    []string{"<form method='get'><input type='password'>"},
		negative:    []string{"<form method='post'>"},
	},
	{
		name:        SuspiciousFormFields,
		explanation: "Malicious field names.",
		positive:    []string{"name='cmd'"},
		negative:    []string{"name='username'"},
	},
	{
		name:        CSRFMissing,
		explanation: "Form missing CSRF token.",
		positive:    []string{"<form method='post'>"},
		negative:    []string{"<form method='post'><input name='csrf'>"},
	},
	{
		name:        ServiceDisruption,
		explanation: "5xx errors or repeated failures.",
		positive:    []string{"503 service unavailable", "502 bad gateway"},
		negative:    []string{"200 ok"},
	},
	{
		name:        RenderError,
		explanation: "Headless browser failed to load or drive the page.",
	},
}

// outdatedServerPattern matches Server header values of end-of-life builds.
const outdatedServerPattern = `apache/2\.2\.\d|nginx/1\.10\.\d|iis/6\.0|php/5\.2`
