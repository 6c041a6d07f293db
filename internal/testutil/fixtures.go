package testutil

// MinimalDoop holds a single block with a one-line body.
const MinimalDoop = "<script>\nconsole.log('Hello World');\n</script>\n"

// SimpleDoop has two generated-id blocks, one explicit-id block with typed
// attributes, and orphaned text before, between and after the blocks.
const SimpleDoop = `Out of bounds leading whitespace

<script>
console.log('one');
</script>

Out of bounds mid whitespace

<script>
console.log('two');
</script>

Out of bounds mid whitespace x1
Out of bounds mid whitespace x2
Out of bounds mid whitespace x3

<script id="three" foo=123 bar baz="Test String">
console.log('three');
</script>

Out of bounds trailing whitespace
`

// WebserverDoop binds its blocks to lifecycle events through alias flags
// and an explicit `on` attribute.
const WebserverDoop = `<script middleware>
app.use(cors());
</script>

<script on="middleware">
app.use(express.json());
</script>

<script endpoint>
app.get('/', (req, res) => res.send('hello'));
</script>

<script endpoint>
app.get('/ping', (req, res) => res.send('pong'));
</script>
`
